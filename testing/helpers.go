package testing

import (
	"context"
	"time"

	"github.com/malwarebo/dealhub/models"
)

func MockShop() *models.Shop {
	return &models.Shop{
		ID:        1,
		Name:      "Test Coffee Bar",
		TypeID:    1,
		Area:      "Downtown",
		Address:   "101 Main St",
		AvgPrice:  80,
		Score:     45,
		OpenHours: "08:00-22:00",
	}
}

func MockShopType() *models.ShopType {
	return &models.ShopType{
		ID:   1,
		Name: "Cafe",
		Icon: "/icons/cafe.png",
		Sort: 1,
	}
}

func MockUser(id int64) *models.User {
	return &models.User{
		ID:       id,
		Phone:    "+15550000001",
		Nickname: "test_user",
	}
}

// MockSeckillVoucher returns sale constraints with the window open right now.
func MockSeckillVoucher(voucherID int64, stock int) *models.SeckillVoucher {
	now := time.Now()
	return &models.SeckillVoucher{
		VoucherID: voucherID,
		Stock:     stock,
		BeginTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
}

func MockVoucher(id int64) *models.Voucher {
	return &models.Voucher{
		ID:          id,
		ShopID:      1,
		Title:       "50 off 100",
		PayValue:    5000,
		ActualValue: 10000,
		Type:        models.VoucherTypeSeckill,
		Status:      models.VoucherStatusActive,
	}
}

func MockContext() context.Context {
	return context.Background()
}

func MockContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
