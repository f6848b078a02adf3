// Package readmodel defines the denormalized view models the projector
// maintains from the event stream. They are what the query side serves;
// the event store stays the source of truth.
package readmodel

import (
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Product status values derived by the projector.
const (
	ProductStatusActive     = "active"
	ProductStatusInactive   = "inactive"
	ProductStatusOutOfStock = "out_of_stock"
)

// ProductReadModel is the catalog view of a product, stock included.
type ProductReadModel struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	SKU         string           `json:"sku,omitempty"`
	Image       string           `json:"image,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
	Stock       int              `json:"stock"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// EffectivePrice mirrors the order-line snapshot price: sale price when
// set and lower, base price otherwise.
func (p *ProductReadModel) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.LessThan(p.Price) {
		return *p.SalePrice
	}
	return p.Price
}

// OrderReadModel is the full order view served to clients.
type OrderReadModel struct {
	ID                string                `json:"id"`
	OrderNumber       string                `json:"order_number"`
	UserID            string                `json:"user_id"`
	Items             []order.Item          `json:"items"`
	ShippingAddress   order.ShippingAddress `json:"shipping_address"`
	PaymentMethod     string                `json:"payment_method"`
	PaymentResult     *order.PaymentResult  `json:"payment_result,omitempty"`
	ItemsPrice        decimal.Decimal       `json:"items_price"`
	TaxPrice          decimal.Decimal       `json:"tax_price"`
	ShippingPrice     decimal.Decimal       `json:"shipping_price"`
	TotalPrice        decimal.Decimal       `json:"total_price"`
	Status            string                `json:"status"`
	IsPaid            bool                  `json:"is_paid"`
	PaidAt            *time.Time            `json:"paid_at,omitempty"`
	IsDelivered       bool                  `json:"is_delivered"`
	DeliveredAt       *time.Time            `json:"delivered_at,omitempty"`
	TrackingNumber    string                `json:"tracking_number,omitempty"`
	Carrier           string                `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time            `json:"estimated_delivery,omitempty"`
	Notes             string                `json:"notes,omitempty"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason      string                `json:"cancel_reason,omitempty"`
	RefundAmount      decimal.Decimal       `json:"refund_amount"`
	RefundedAt        *time.Time            `json:"refunded_at,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// InventoryReadModel is the stock view keyed by product.
type InventoryReadModel struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserReadModel is the account view, password hash included for the
// login path. Handlers must never serialize it to clients directly.
type UserReadModel struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SessionReadModel tracks an active login session. Written by the auth
// handlers, not the projector: the refresh token hash must never pass
// through the event stream.
type SessionReadModel struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	ExpiresAt        time.Time `json:"expires_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	CreatedAt        time.Time `json:"created_at"`
}
