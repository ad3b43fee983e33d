package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/malwarebo/dealhub/models"
	fixtures "github.com/malwarebo/dealhub/testing"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:stores_%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Shop{},
		&models.Voucher{},
		&models.SeckillVoucher{},
		&models.VoucherOrder{},
	); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return gdb
}

func TestDecrementStockStopsAtZero(t *testing.T) {
	gdb := newTestDB(t)
	store := NewVoucherStore(gdb)
	ctx := context.Background()

	seckill := fixtures.MockSeckillVoucher(1, 2)
	if err := store.CreateSeckill(ctx, seckill); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	for i := 0; i < 2; i++ {
		rows, err := store.DecrementStock(ctx, 1)
		if err != nil {
			t.Fatalf("decrement %d failed: %v", i, err)
		}
		if rows != 1 {
			t.Fatalf("decrement %d affected %d rows", i, rows)
		}
	}

	rows, err := store.DecrementStock(ctx, 1)
	if err != nil {
		t.Fatalf("decrement at zero failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("decrement at zero affected %d rows", rows)
	}

	got, err := store.GetSeckillByID(ctx, 1)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Stock != 0 {
		t.Fatalf("stock went negative or stuck: %d", got.Stock)
	}
}

func TestGetByPhoneMissingIsNotAnError(t *testing.T) {
	gdb := newTestDB(t)
	store := NewUserStore(gdb)

	user, err := store.GetByPhone(context.Background(), "+15550000000")
	if err != nil {
		t.Fatalf("expected nil error for a missing row, got %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	gdb := newTestDB(t)
	store := NewShopStore(gdb)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := store.Create(txCtx, fixtures.MockShop()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the inner error, got %v", err)
	}

	shop, err := store.GetByID(ctx, fixtures.MockShop().ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if shop != nil {
		t.Fatal("transaction did not roll back the insert")
	}
}

func TestWithTransactionSpansStores(t *testing.T) {
	gdb := newTestDB(t)
	vouchers := NewVoucherStore(gdb)
	orders := NewOrderStore(gdb)
	ctx := context.Background()

	seckill := fixtures.MockSeckillVoucher(5, 1)
	if err := vouchers.CreateSeckill(ctx, seckill); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	user := fixtures.MockUser(9)
	err := orders.WithTransaction(ctx, func(txCtx context.Context) error {
		rows, err := vouchers.DecrementStock(txCtx, 5)
		if err != nil {
			return err
		}
		if rows != 1 {
			t.Fatalf("decrement affected %d rows", rows)
		}
		return orders.Create(txCtx, &models.VoucherOrder{
			ID:        1001,
			UserID:    user.ID,
			VoucherID: 5,
		})
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	count, err := orders.CountByUserAndVoucher(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 order, got %d", count)
	}
}
