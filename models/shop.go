package models

import (
	"time"
)

type Shop struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	TypeID    int64     `json:"type_id" gorm:"index"`
	Area      string    `json:"area"`
	Address   string    `json:"address"`
	AvgPrice  int64     `json:"avg_price"`
	Score     int       `json:"score" gorm:"default:0"`
	OpenHours string    `json:"open_hours"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type ShopType struct {
	ID   int64  `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`
	Icon string `json:"icon"`
	Sort int    `json:"sort" gorm:"index"`
}

type UpdateShopRequest struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Area      string `json:"area,omitempty"`
	Address   string `json:"address,omitempty"`
	AvgPrice  int64  `json:"avg_price,omitempty"`
	OpenHours string `json:"open_hours,omitempty"`
}
