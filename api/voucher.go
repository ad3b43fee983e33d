package api

import (
	"encoding/json"
	"net/http"

	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/services"
	"github.com/malwarebo/dealhub/utils"
)

type VoucherHandler struct {
	voucherService *services.VoucherService
}

func NewVoucherHandler(voucherService *services.VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherService: voucherService}
}

func (h *VoucherHandler) HandleCreateSeckill(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSeckillVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	voucher, err := h.voucherService.AddSeckillVoucher(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, voucher)
}

func (h *VoucherHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, utils.ErrInvalidRequest)
		return
	}

	voucher, err := h.voucherService.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voucher)
}

func (h *VoucherHandler) HandleGetSeckill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, utils.ErrInvalidRequest)
		return
	}

	seckill, err := h.voucherService.GetSeckillVoucher(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, seckill)
}
