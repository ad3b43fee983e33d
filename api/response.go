package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/malwarebo/dealhub/utils"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// writeError maps service errors to their HTTP status. Anything that is not a
// typed API error is reported as a generic 500; internals never leak to the
// client.
func writeError(w http.ResponseWriter, err error) {
	status := utils.GetHTTPStatusFromError(err)

	var apiErr *utils.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, status, ErrorResponse{Error: apiErr.Message, Details: apiErr.Details})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: "Internal server error"})
}
