package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/malwarebo/dealhub/cache"
	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/utils"
)

func newVoucherService(env *testEnv) *VoucherService {
	return NewVoucherService(env.vouchers, env.client, 30*time.Minute)
}

func validSeckillRequest() *models.CreateSeckillVoucherRequest {
	now := time.Now()
	return &models.CreateSeckillVoucherRequest{
		ShopID:      1,
		Title:       "flash deal",
		PayValue:    5000,
		ActualValue: 10000,
		Stock:       50,
		BeginTime:   now.Add(-time.Minute),
		EndTime:     now.Add(time.Hour),
	}
}

func TestAddSeckillVoucherPersistsAndPrewarms(t *testing.T) {
	env := newTestEnv(t)
	svc := newVoucherService(env)
	ctx := context.Background()

	voucher, err := svc.AddSeckillVoucher(ctx, validSeckillRequest())
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if voucher.ID == 0 || voucher.Type != models.VoucherTypeSeckill {
		t.Fatalf("unexpected voucher: %+v", voucher)
	}

	seckill, err := env.vouchers.GetSeckillByID(ctx, voucher.ID)
	if err != nil || seckill == nil {
		t.Fatalf("seckill row missing: %v", err)
	}
	if seckill.Stock != 50 {
		t.Fatalf("unexpected stock: %d", seckill.Stock)
	}

	exists, err := env.kv.Exists(ctx, cache.Key("cache:seckill:", voucher.ID))
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Fatal("sale entry was not pre-warmed")
	}
}

func TestAddSeckillVoucherValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newVoucherService(env)
	ctx := context.Background()

	noStock := validSeckillRequest()
	noStock.Stock = 0
	if _, err := svc.AddSeckillVoucher(ctx, noStock); err == nil {
		t.Fatal("expected rejection for zero stock")
	}

	badWindow := validSeckillRequest()
	badWindow.EndTime = badWindow.BeginTime.Add(-time.Minute)
	if _, err := svc.AddSeckillVoucher(ctx, badWindow); err == nil {
		t.Fatal("expected rejection for inverted window")
	}

	if _, err := svc.AddSeckillVoucher(ctx, nil); !errors.Is(err, utils.ErrInvalidRequest) {
		t.Fatalf("expected invalid-request for nil, got %v", err)
	}
}

func TestGetSeckillVoucherReadsPrewarmedEntry(t *testing.T) {
	env := newTestEnv(t)
	svc := newVoucherService(env)
	ctx := context.Background()

	voucher, err := svc.AddSeckillVoucher(ctx, validSeckillRequest())
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// Remove the row: the read path must not touch the database while the
	// pre-warmed entry is fresh.
	if err := env.db.Delete(&models.SeckillVoucher{}, voucher.ID).Error; err != nil {
		t.Fatalf("failed to delete row: %v", err)
	}

	seckill, err := svc.GetSeckillVoucher(ctx, voucher.ID)
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if seckill.VoucherID != voucher.ID || seckill.Stock != 50 {
		t.Fatalf("unexpected seckill entry: %+v", seckill)
	}
}

func TestGetSeckillVoucherUnknown(t *testing.T) {
	env := newTestEnv(t)
	svc := newVoucherService(env)

	if _, err := svc.GetSeckillVoucher(context.Background(), 99999); !errors.Is(err, utils.ErrVoucherNotFound) {
		t.Fatalf("expected voucher-not-found, got %v", err)
	}
}

func TestGetVoucherByID(t *testing.T) {
	env := newTestEnv(t)
	svc := newVoucherService(env)
	ctx := context.Background()

	voucher, err := svc.AddSeckillVoucher(ctx, validSeckillRequest())
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	got, err := svc.GetByID(ctx, voucher.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "flash deal" {
		t.Fatalf("unexpected voucher: %+v", got)
	}

	if _, err := svc.GetByID(ctx, 99999); !errors.Is(err, utils.ErrVoucherNotFound) {
		t.Fatalf("expected voucher-not-found, got %v", err)
	}
}
