package api

import (
	"net/http"

	"github.com/malwarebo/dealhub/middleware"
	"github.com/malwarebo/dealhub/services"
	"github.com/malwarebo/dealhub/utils"
)

type OrderHandler struct {
	seckillService *services.SeckillService
}

func NewOrderHandler(seckillService *services.SeckillService) *OrderHandler {
	return &OrderHandler{seckillService: seckillService}
}

// HandlePlaceSeckillOrder admits one flash-sale order for the logged-in user.
func (h *OrderHandler) HandlePlaceSeckillOrder(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, utils.ErrUnauthorized)
		return
	}

	voucherID, err := pathID(r, "id")
	if err != nil {
		writeError(w, utils.ErrInvalidRequest)
		return
	}

	resp, err := h.seckillService.PlaceOrder(r.Context(), session.ID, voucherID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, utils.ErrUnauthorized)
		return
	}

	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, utils.ErrInvalidRequest)
		return
	}

	order, err := h.seckillService.GetOrder(r.Context(), session.ID, orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, utils.ErrUnauthorized)
		return
	}

	orders, err := h.seckillService.ListOrders(r.Context(), session.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}
