package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/utils"
	"golang.org/x/sync/errgroup"
)

// testSeckillConfig gives same-user contenders a generous gate budget so they
// serialize instead of bouncing off with an in-progress rejection.
var testSeckillConfig = SeckillConfig{
	GateTTL:     5 * time.Second,
	GateRetries: 400,
	GateBackoff: 5 * time.Millisecond,
}

func newSeckillService(env *testEnv) *SeckillService {
	return NewSeckillService(env.vouchers, env.orders, env.locker, env.idgen, testSeckillConfig)
}

func seedSeckillVoucher(t *testing.T, env *testEnv, stock int, begin, end time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	voucher := &models.Voucher{
		ShopID:      1,
		Title:       "flash deal",
		PayValue:    5000,
		ActualValue: 10000,
		Type:        models.VoucherTypeSeckill,
		Status:      models.VoucherStatusActive,
	}
	if err := env.vouchers.Create(ctx, voucher); err != nil {
		t.Fatalf("failed to seed voucher: %v", err)
	}
	if err := env.vouchers.CreateSeckill(ctx, &models.SeckillVoucher{
		VoucherID: voucher.ID,
		Stock:     stock,
		BeginTime: begin,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("failed to seed seckill voucher: %v", err)
	}
	return voucher.ID
}

func openWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestPlaceOrderNeverOversells(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()

	const stock = 5
	const buyers = 20

	begin, end := openWindow()
	voucherID := seedSeckillVoucher(t, env, stock, begin, end)

	var succeeded, rejected atomic.Int64
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		userID := int64(i + 1)
		g.Go(func() error {
			_, err := svc.PlaceOrder(ctx, userID, voucherID)
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if errors.Is(err, utils.ErrOutOfStock) || errors.Is(err, utils.ErrStockDepleted) {
				rejected.Add(1)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error from a buyer: %v", err)
	}

	if got := succeeded.Load(); got != stock {
		t.Fatalf("expected %d successful orders, got %d", stock, got)
	}
	if got := rejected.Load(); got != buyers-stock {
		t.Fatalf("expected %d out-of-stock rejections, got %d", buyers-stock, got)
	}

	seckill, err := env.vouchers.GetSeckillByID(ctx, voucherID)
	if err != nil {
		t.Fatalf("failed to reload seckill voucher: %v", err)
	}
	if seckill.Stock != 0 {
		t.Fatalf("expected stock to end at 0, got %d", seckill.Stock)
	}
}

func TestPlaceOrderOnePerUser(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()

	const attempts = 8
	const userID = int64(77)

	begin, end := openWindow()
	voucherID := seedSeckillVoucher(t, env, 100, begin, end)

	var succeeded, duplicates atomic.Int64
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := svc.PlaceOrder(ctx, userID, voucherID)
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if errors.Is(err, utils.ErrAlreadyPurchased) {
				duplicates.Add(1)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error from an attempt: %v", err)
	}

	if got := succeeded.Load(); got != 1 {
		t.Fatalf("expected exactly 1 successful order, got %d", got)
	}
	if got := duplicates.Load(); got != attempts-1 {
		t.Fatalf("expected %d duplicate rejections, got %d", attempts-1, got)
	}

	count, err := env.orders.CountByUserAndVoucher(ctx, userID, voucherID)
	if err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 persisted order, found %d", count)
	}
}

func TestPlaceOrderSequentialDuplicate(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()

	begin, end := openWindow()
	voucherID := seedSeckillVoucher(t, env, 10, begin, end)

	if _, err := svc.PlaceOrder(ctx, 1, voucherID); err != nil {
		t.Fatalf("first order failed: %v", err)
	}
	if _, err := svc.PlaceOrder(ctx, 1, voucherID); !errors.Is(err, utils.ErrAlreadyPurchased) {
		t.Fatalf("expected already-purchased, got %v", err)
	}
}

func TestPlaceOrderSaleWindow(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()
	now := time.Now()

	notStarted := seedSeckillVoucher(t, env, 10, now.Add(time.Hour), now.Add(2*time.Hour))
	if _, err := svc.PlaceOrder(ctx, 1, notStarted); !errors.Is(err, utils.ErrSaleNotStarted) {
		t.Fatalf("expected sale-not-started, got %v", err)
	}

	ended := seedSeckillVoucher(t, env, 10, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if _, err := svc.PlaceOrder(ctx, 1, ended); !errors.Is(err, utils.ErrSaleEnded) {
		t.Fatalf("expected sale-ended, got %v", err)
	}
}

func TestPlaceOrderUnknownVoucher(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)

	if _, err := svc.PlaceOrder(context.Background(), 1, 99999); !errors.Is(err, utils.ErrVoucherNotFound) {
		t.Fatalf("expected voucher-not-found, got %v", err)
	}
}

func TestPlaceOrderExhaustedStock(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()

	begin, end := openWindow()
	voucherID := seedSeckillVoucher(t, env, 1, begin, end)

	if _, err := svc.PlaceOrder(ctx, 1, voucherID); err != nil {
		t.Fatalf("first order failed: %v", err)
	}
	if _, err := svc.PlaceOrder(ctx, 2, voucherID); !errors.Is(err, utils.ErrOutOfStock) {
		t.Fatalf("expected out-of-stock, got %v", err)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()

	begin, end := openWindow()
	voucherID := seedSeckillVoucher(t, env, 10, begin, end)

	resp, err := svc.PlaceOrder(ctx, 1, voucherID)
	if err != nil {
		t.Fatalf("order failed: %v", err)
	}

	order, err := svc.GetOrder(ctx, 1, resp.OrderID)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if order.VoucherID != voucherID {
		t.Fatalf("unexpected order: %+v", order)
	}

	if _, err := svc.GetOrder(ctx, 2, resp.OrderID); !errors.Is(err, utils.ErrOrderNotFound) {
		t.Fatalf("expected not-found for a different user, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)
	svc := newSeckillService(env)
	ctx := context.Background()

	begin, end := openWindow()
	first := seedSeckillVoucher(t, env, 10, begin, end)
	second := seedSeckillVoucher(t, env, 10, begin, end)

	if _, err := svc.PlaceOrder(ctx, 1, first); err != nil {
		t.Fatalf("first order failed: %v", err)
	}
	if _, err := svc.PlaceOrder(ctx, 1, second); err != nil {
		t.Fatalf("second order failed: %v", err)
	}

	orders, err := svc.ListOrders(ctx, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
}
