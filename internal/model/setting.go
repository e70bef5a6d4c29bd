package model

import "time"

// Store setting keys
const (
	SettingPlatformFeePercent = "platform_fee_percent"
	SettingMaintenanceMode    = "maintenance_mode"
)

// StoreSetting is an owner-tunable key/value setting
type StoreSetting struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Key       string    `json:"key" gorm:"type:varchar(50);uniqueIndex;not null"`
	Value     string    `json:"value" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
