package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
)

type ProductCreated struct {
	ProductID   string           `json:"product_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	SKU         string           `json:"sku,omitempty"`
	Image       string           `json:"image,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ProductUpdated struct {
	ProductID   string           `json:"product_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Image       string           `json:"image,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ProductDeleted struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
