package model

import "time"

// PaymentLog states
const (
	PaymentLogCreated            = "created"
	PaymentLogCaptured           = "captured"
	PaymentLogFailed             = "failed"
	PaymentLogFailedVerification = "failed_verification"
)

// PaymentLog is one row per gateway payment attempt, keyed by the gateway
// order id so the verify and webhook paths upsert the same row.
type PaymentLog struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	GatewayOrderID string    `json:"gateway_order_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	PaymentID      string    `json:"payment_id,omitempty" gorm:"type:varchar(100)"`
	OrderID        uint      `json:"order_id" gorm:"index;not null"`
	Amount         int64     `json:"amount" gorm:"not null"` // minor currency units (paise)
	Status         string    `json:"status" gorm:"type:varchar(30);not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
