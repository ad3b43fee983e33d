package models

import (
	"time"
)

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Phone     string    `json:"phone" gorm:"uniqueIndex;not null"`
	Nickname  string    `json:"nickname"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SessionUser is the slice of User kept in Redis for the lifetime of a login
// token.
type SessionUser struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Icon     string `json:"icon,omitempty"`
}

type SendCodeRequest struct {
	Phone string `json:"phone"`
}

type LoginRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
