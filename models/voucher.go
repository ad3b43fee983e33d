package models

import (
	"time"
)

type VoucherType int

const (
	VoucherTypeRegular VoucherType = 0
	VoucherTypeSeckill VoucherType = 1
)

type VoucherStatus int

const (
	VoucherStatusActive   VoucherStatus = 1
	VoucherStatusExpired  VoucherStatus = 2
	VoucherStatusDisabled VoucherStatus = 3
)

type Voucher struct {
	ID          int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	ShopID      int64         `json:"shop_id" gorm:"index;not null"`
	Title       string        `json:"title" gorm:"not null"`
	SubTitle    string        `json:"sub_title"`
	Rules       string        `json:"rules"`
	PayValue    int64         `json:"pay_value" gorm:"not null"`
	ActualValue int64         `json:"actual_value" gorm:"not null"`
	Type        VoucherType   `json:"type" gorm:"default:0"`
	Status      VoucherStatus `json:"status" gorm:"default:1"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// SeckillVoucher carries the flash-sale constraints for a voucher: a sale
// window and a strictly limited stock. Stock never goes negative; it is only
// decremented through a conditional update guarded by stock > 0.
type SeckillVoucher struct {
	VoucherID int64     `json:"voucher_id" gorm:"primaryKey;autoIncrement:false"`
	Stock     int       `json:"stock" gorm:"not null"`
	BeginTime time.Time `json:"begin_time" gorm:"not null"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type CreateSeckillVoucherRequest struct {
	ShopID      int64     `json:"shop_id"`
	Title       string    `json:"title"`
	SubTitle    string    `json:"sub_title,omitempty"`
	Rules       string    `json:"rules,omitempty"`
	PayValue    int64     `json:"pay_value"`
	ActualValue int64     `json:"actual_value"`
	Stock       int       `json:"stock"`
	BeginTime   time.Time `json:"begin_time"`
	EndTime     time.Time `json:"end_time"`
}
