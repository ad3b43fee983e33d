package models

import (
	"time"
)

type OrderStatus int

const (
	OrderStatusUnpaid   OrderStatus = 1
	OrderStatusPaid     OrderStatus = 2
	OrderStatusCanceled OrderStatus = 3
	OrderStatusRefunded OrderStatus = 4
)

// VoucherOrder is created exactly once per (user, voucher) and is immutable
// afterwards. The ID is minted by the distributed ID worker, never by the
// database.
type VoucherOrder struct {
	ID        int64       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID    int64       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_voucher"`
	VoucherID int64       `json:"voucher_id" gorm:"not null;uniqueIndex:idx_user_voucher"`
	PayType   int         `json:"pay_type" gorm:"default:1"`
	Status    OrderStatus `json:"status" gorm:"default:1"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

type PlaceOrderResponse struct {
	OrderID int64 `json:"order_id"`
}
