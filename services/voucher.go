package services

import (
	"context"
	"net/http"
	"time"

	"github.com/malwarebo/dealhub/cache"
	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/stores"
	"github.com/malwarebo/dealhub/utils"
)

const (
	voucherKeyPrefix = "cache:voucher:"
	seckillKeyPrefix = "cache:seckill:"
)

// VoucherService manages the voucher catalog. Flash-sale vouchers are
// pre-warmed into the cache with a logical expiry when published, so the
// read path never blocks on a rebuild during the sale.
type VoucherService struct {
	vouchers   *stores.VoucherStore
	cache      *cache.Client
	voucherTTL time.Duration
	logger     *utils.Logger
}

func NewVoucherService(vouchers *stores.VoucherStore, cacheClient *cache.Client, voucherTTL time.Duration) *VoucherService {
	if voucherTTL == 0 {
		voucherTTL = 30 * time.Minute
	}
	return &VoucherService{
		vouchers:   vouchers,
		cache:      cacheClient,
		voucherTTL: voucherTTL,
		logger:     utils.NewLogger("voucher-service"),
	}
}

// AddSeckillVoucher publishes a voucher and its flash-sale constraints in one
// transaction, then pre-warms the sale entry.
func (s *VoucherService) AddSeckillVoucher(ctx context.Context, req *models.CreateSeckillVoucherRequest) (*models.Voucher, error) {
	if req == nil {
		return nil, utils.ErrInvalidRequest
	}
	var problems utils.ValidationErrors
	if v := utils.ValidatePositive(req.ShopID, "shop_id"); v != nil {
		problems = append(problems, *v)
	}
	if v := utils.ValidateRequired(req.Title, "title"); v != nil {
		problems = append(problems, *v)
	}
	if v := utils.ValidatePositive(req.PayValue, "pay_value"); v != nil {
		problems = append(problems, *v)
	}
	if v := utils.ValidatePositive(int64(req.Stock), "stock"); v != nil {
		problems = append(problems, *v)
	}
	if v := utils.ValidateSaleWindow(req.BeginTime, req.EndTime); v != nil {
		problems = append(problems, *v)
	}
	if len(problems) > 0 {
		return nil, utils.NewAPIErrorWithDetails(http.StatusBadRequest, "Invalid request", problems.Error())
	}

	voucher := &models.Voucher{
		ShopID:      req.ShopID,
		Title:       req.Title,
		SubTitle:    req.SubTitle,
		Rules:       req.Rules,
		PayValue:    req.PayValue,
		ActualValue: req.ActualValue,
		Type:        models.VoucherTypeSeckill,
		Status:      models.VoucherStatusActive,
	}

	var seckill *models.SeckillVoucher
	err := s.vouchers.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.vouchers.Create(txCtx, voucher); err != nil {
			return err
		}
		seckill = &models.SeckillVoucher{
			VoucherID: voucher.ID,
			Stock:     req.Stock,
			BeginTime: req.BeginTime,
			EndTime:   req.EndTime,
		}
		return s.vouchers.CreateSeckill(txCtx, seckill)
	})
	if err != nil {
		return nil, utils.WrapError(err, "failed to publish seckill voucher")
	}

	warmTTL := time.Until(seckill.EndTime)
	if warmTTL <= 0 {
		warmTTL = s.voucherTTL
	}
	key := cache.Key(seckillKeyPrefix, voucher.ID)
	if wErr := s.cache.SetWithLogicalExpire(ctx, key, seckill, warmTTL); wErr != nil {
		// Reads fall back to not-found until the entry is warmed again.
		s.logger.Warn(ctx, "failed to pre-warm seckill voucher", map[string]interface{}{
			"voucher_id": voucher.ID,
			"error":      wErr.Error(),
		})
	}

	s.logger.Info(ctx, "seckill voucher published", map[string]interface{}{
		"voucher_id": voucher.ID,
		"stock":      req.Stock,
	})

	return voucher, nil
}

func (s *VoucherService) GetByID(ctx context.Context, id int64) (*models.Voucher, error) {
	if id <= 0 {
		return nil, utils.ErrInvalidRequest
	}
	voucher, err := cache.FetchThrough(ctx, s.cache, voucherKeyPrefix, id, s.voucherTTL, s.vouchers.GetByID)
	if err != nil {
		return nil, utils.WrapError(err, "failed to fetch voucher")
	}
	if voucher == nil {
		return nil, utils.ErrVoucherNotFound
	}
	return voucher, nil
}

// GetSeckillVoucher reads the sale entry through the logical-expire strategy:
// always non-blocking, possibly a little stale. An absent entry means the
// voucher was never published as a flash sale.
func (s *VoucherService) GetSeckillVoucher(ctx context.Context, voucherID int64) (*models.SeckillVoucher, error) {
	if voucherID <= 0 {
		return nil, utils.ErrInvalidRequest
	}
	seckill, err := cache.FetchWithLogicalExpire(ctx, s.cache, seckillKeyPrefix, voucherID, s.voucherTTL, s.vouchers.GetSeckillByID)
	if err != nil {
		return nil, utils.WrapError(err, "failed to fetch seckill voucher")
	}
	if seckill == nil {
		return nil, utils.ErrVoucherNotFound
	}
	return seckill, nil
}
