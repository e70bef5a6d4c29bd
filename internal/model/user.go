package model

import (
	"time"

	"gorm.io/gorm"
)

// Role values, strictly ordered user < store_admin < owner
const (
	RoleUser       = "user"
	RoleStoreAdmin = "store_admin"
	RoleOwner      = "owner"
)

// User represents a customer or staff account
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password     string         `json:"-" gorm:"type:varchar(255)"`
	Role         string         `json:"role" gorm:"type:varchar(20);not null;default:'user';index"`
	IsVerified   bool           `json:"is_verified" gorm:"default:false"`
	OTPCode      string         `json:"-" gorm:"type:varchar(10)"`
	OTPExpiresAt *time.Time     `json:"-"`
	IsBanned     bool           `json:"is_banned" gorm:"default:false"`
	BanReason    string         `json:"ban_reason,omitempty" gorm:"type:varchar(255)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
