package model

import "time"

// Cart is the server-side cart, one row per user
type Cart struct {
	ID        uint       `json:"id" gorm:"primarykey"`
	UserID    uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a (product, variant, quantity) tuple in a cart
type CartItem struct {
	ID        uint   `json:"id" gorm:"primarykey"`
	CartID    uint   `json:"cart_id" gorm:"index;not null"`
	ProductID uint   `json:"product_id" gorm:"not null"`
	VariantID string `json:"variant_id,omitempty" gorm:"type:varchar(100)"`
	Quantity  int    `json:"quantity" gorm:"not null"`
}
