package command

import (
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Product commands
type CreateProduct struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	SKU         string           `json:"sku,omitempty"`
	Image       string           `json:"image,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
	Stock       int              `json:"stock"`
}

type UpdateProduct struct {
	ProductID   string           `json:"product_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Image       string           `json:"image,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

type AddStock struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Order commands
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrder struct {
	UserID          string                `json:"user_id"`
	Lines           []OrderLine           `json:"lines"`
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	PaymentMethod   order.PaymentMethod   `json:"payment_method"`
	Notes           string                `json:"notes,omitempty"`
}

type ConfirmPayment struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type UpdateOrderStatus struct {
	OrderID           string        `json:"order_id"`
	Status            order.Status  `json:"status"`
	Notes             string        `json:"notes,omitempty"`
	TrackingNumber    string        `json:"tracking_number,omitempty"`
	ShippingCarrier   order.Carrier `json:"shipping_carrier,omitempty"`
	EstimatedDelivery *time.Time    `json:"estimated_delivery,omitempty"`
}

type CancelOrder struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

type RefundOrder struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason,omitempty"`
}
