package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values
const (
	OrderStatusPending       = "pending"
	OrderStatusProcessing    = "processing"
	OrderStatusShipped       = "shipped"
	OrderStatusDelivered     = "delivered"
	OrderStatusCancelled     = "cancelled"
	OrderStatusPaymentFailed = "payment_failed"
)

// Payment status values on an order
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment method values
const (
	PaymentMethodCOD     = "cod"
	PaymentMethodGateway = "gateway"
)

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusPaymentFailed:
		return true
	}
	return false
}

// ShippingAddress is embedded into the order row
type ShippingAddress struct {
	Name       string `json:"name" gorm:"type:varchar(100)"`
	Line1      string `json:"line1" gorm:"type:varchar(255)"`
	Line2      string `json:"line2,omitempty" gorm:"type:varchar(255)"`
	City       string `json:"city" gorm:"type:varchar(100)"`
	State      string `json:"state" gorm:"type:varchar(100)"`
	PostalCode string `json:"postal_code" gorm:"type:varchar(20)"`
	Phone      string `json:"phone" gorm:"type:varchar(20)"`
}

// Order represents a placed order with server-computed totals
type Order struct {
	ID              uint            `json:"id" gorm:"primarykey"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	PlatformFee     decimal.Decimal `json:"platform_fee" gorm:"type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Status          string          `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus   string          `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod   string          `json:"payment_method" gorm:"type:varchar(20);not null"`
	ShippingAddress ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	TrackingNumber  string          `json:"tracking_number,omitempty" gorm:"type:varchar(100)"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
}

// OrderItem snapshots one line of an order at purchase time
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID uint            `json:"product_id" gorm:"not null"`
	Name      string          `json:"name" gorm:"type:varchar(255)"`
	VariantID string          `json:"variant_id,omitempty" gorm:"type:varchar(100)"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
}
