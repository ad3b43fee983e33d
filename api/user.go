package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/malwarebo/dealhub/middleware"
	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/services"
	"github.com/malwarebo/dealhub/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	var req models.SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.userService.SendCode(r.Context(), req.Phone); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe returns the session profile attached by the token middleware.
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, utils.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.userService.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
