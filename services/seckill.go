package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/malwarebo/dealhub/ids"
	"github.com/malwarebo/dealhub/lock"
	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/stores"
	"github.com/malwarebo/dealhub/utils"
)

const orderGateKeyPrefix = "lock:order:user:"

// SeckillConfig tunes the per-user admission gate.
type SeckillConfig struct {
	GateTTL     time.Duration
	GateRetries int
	GateBackoff time.Duration
}

func (c SeckillConfig) withDefaults() SeckillConfig {
	if c.GateTTL == 0 {
		c.GateTTL = 5 * time.Second
	}
	if c.GateRetries == 0 {
		c.GateRetries = 3
	}
	if c.GateBackoff == 0 {
		c.GateBackoff = 20 * time.Millisecond
	}
	return c
}

// SeckillService admits flash-sale orders. The pipeline is: advisory window
// and stock pre-checks, a deployment-wide per-user gate, then one transaction
// holding the authoritative checks (order count, conditional stock decrement)
// and the order insert. The database guards are what prevent oversell and
// duplicates; everything before them only sheds doomed work early.
type SeckillService struct {
	vouchers *stores.VoucherStore
	orders   *stores.OrderStore
	locker   lock.Locker
	idgen    *ids.Worker
	config   SeckillConfig
	logger   *utils.Logger
}

func NewSeckillService(vouchers *stores.VoucherStore, orders *stores.OrderStore, locker lock.Locker, idgen *ids.Worker, config SeckillConfig) *SeckillService {
	return &SeckillService{
		vouchers: vouchers,
		orders:   orders,
		locker:   locker,
		idgen:    idgen,
		config:   config.withDefaults(),
		logger:   utils.NewLogger("seckill-service"),
	}
}

// PlaceOrder attempts to buy one unit of a flash-sale voucher for userID.
// The sale window is begin-inclusive, end-exclusive. At most one order per
// (user, voucher) ever succeeds.
func (s *SeckillService) PlaceOrder(ctx context.Context, userID, voucherID int64) (*models.PlaceOrderResponse, error) {
	if userID <= 0 || voucherID <= 0 {
		return nil, utils.ErrInvalidRequest
	}

	seckill, err := s.vouchers.GetSeckillByID(ctx, voucherID)
	if err != nil {
		return nil, utils.WrapError(err, "failed to load seckill voucher")
	}
	if seckill == nil {
		return nil, utils.ErrVoucherNotFound
	}

	now := time.Now()
	if now.Before(seckill.BeginTime) {
		return nil, utils.ErrSaleNotStarted
	}
	if !now.Before(seckill.EndTime) {
		return nil, utils.ErrSaleEnded
	}
	if seckill.Stock <= 0 {
		return nil, utils.ErrOutOfStock
	}

	// One gate per user across the whole deployment: concurrent attempts by
	// the same user serialize here, so the duplicate check inside the
	// transaction sees any order a parallel attempt just committed.
	gateKey := orderGateKeyPrefix + strconv.FormatInt(userID, 10)
	gateOwner, err := s.acquireGate(ctx, gateKey)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, utils.ErrOrderInProgress
		}
		return nil, utils.WrapError(err, "failed to acquire order gate")
	}
	defer s.releaseGate(ctx, gateKey, gateOwner)

	var order *models.VoucherOrder
	err = s.orders.WithTransaction(ctx, func(txCtx context.Context) error {
		count, err := s.orders.CountByUserAndVoucher(txCtx, userID, voucherID)
		if err != nil {
			return err
		}
		if count > 0 {
			return utils.ErrAlreadyPurchased
		}

		rows, err := s.vouchers.DecrementStock(txCtx, voucherID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// The advisory pre-check saw stock, the authoritative guard did
			// not: another order took the last unit in between.
			s.logger.Warn(txCtx, "stock depleted between pre-check and decrement", map[string]interface{}{
				"voucher_id": voucherID,
			})
			return utils.ErrStockDepleted
		}

		orderID, err := s.idgen.NextID(txCtx, "order")
		if err != nil {
			return err
		}
		order = &models.VoucherOrder{
			ID:        orderID,
			UserID:    userID,
			VoucherID: voucherID,
			Status:    models.OrderStatusUnpaid,
		}
		return s.orders.Create(txCtx, order)
	})
	if err != nil {
		if utils.IsBusinessRejection(err) {
			return nil, err
		}
		return nil, utils.WrapError(err, "order transaction failed")
	}

	s.logger.Info(ctx, "seckill order placed", map[string]interface{}{
		"order_id":   order.ID,
		"voucher_id": voucherID,
	})

	return &models.PlaceOrderResponse{OrderID: order.ID}, nil
}

// GetOrder returns an order only to the user who placed it.
func (s *SeckillService) GetOrder(ctx context.Context, userID, orderID int64) (*models.VoucherOrder, error) {
	if userID <= 0 || orderID <= 0 {
		return nil, utils.ErrInvalidRequest
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, utils.WrapError(err, "failed to load order")
	}
	if order == nil || order.UserID != userID {
		return nil, utils.ErrOrderNotFound
	}
	return order, nil
}

func (s *SeckillService) ListOrders(ctx context.Context, userID int64) ([]*models.VoucherOrder, error) {
	if userID <= 0 {
		return nil, utils.ErrInvalidRequest
	}
	return s.orders.ListByUser(ctx, userID)
}

// acquireGate takes the per-user gate, retrying briefly before giving up with
// lock.ErrNotAcquired. It returns the owner token releaseGate must present.
func (s *SeckillService) acquireGate(ctx context.Context, gateKey string) (string, error) {
	retryConfig := &utils.RetryConfig{
		MaxAttempts:     s.config.GateRetries,
		BaseDelay:       s.config.GateBackoff,
		MaxDelay:        s.config.GateBackoff * 10,
		BackoffType:     utils.Fixed,
		RetryableErrors: []error{lock.ErrNotAcquired},
	}
	var owner string
	err := utils.Retry(ctx, retryConfig, func() error {
		acquired, err := s.locker.TryLock(ctx, gateKey, s.config.GateTTL)
		if err != nil {
			return err
		}
		if acquired == "" {
			return lock.ErrNotAcquired
		}
		owner = acquired
		return nil
	})
	return owner, err
}

func (s *SeckillService) releaseGate(ctx context.Context, gateKey, owner string) {
	if err := s.locker.Unlock(ctx, gateKey, owner); err != nil && !errors.Is(err, lock.ErrNotAcquired) {
		s.logger.Warn(ctx, "failed to release order gate", map[string]interface{}{
			"key":   gateKey,
			"error": err.Error(),
		})
	}
}
