package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents the product master data
type Product struct {
	ID          uint             `json:"id" gorm:"primarykey"`
	Name        string           `json:"name" gorm:"type:varchar(255);not null"`
	Description string           `json:"description" gorm:"type:text"`
	SKU         string           `json:"sku" gorm:"type:varchar(100);unique;not null"`
	Price       decimal.Decimal  `json:"price" gorm:"type:numeric(12,2);not null"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty" gorm:"type:numeric(12,2)"`
	Stock       int              `json:"stock" gorm:"default:0"`
	Category    string           `json:"category" gorm:"type:varchar(100);index"`
	Hidden      bool             `json:"hidden" gorm:"default:false"`
	Blocked     bool             `json:"blocked" gorm:"default:false"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`
}

// EffectivePrice returns the sale price when set, otherwise the list price
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Purchasable reports whether the product may appear in a new order
func (p *Product) Purchasable() bool {
	return !p.Hidden && !p.Blocked
}
