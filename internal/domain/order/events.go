package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderPaid          = "OrderPaid"
	EventOrderStatusUpdated = "OrderStatusUpdated"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderRefunded      = "OrderRefunded"
)

// Item is a snapshot of one product line taken at order-placement time.
// Name, price, image and sku are never recomputed from the live catalog,
// so historical orders stay stable when the catalog changes.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	SKU       string          `json:"sku,omitempty"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// PaymentResult records the gateway's view of a confirmed charge.
type PaymentResult struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	UpdateTime time.Time `json:"update_time"`
	PayerEmail string    `json:"payer_email,omitempty"`
}

type OrderPlaced struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Items           []Item          `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Notes           string          `json:"notes,omitempty"`
	ItemsPrice      decimal.Decimal `json:"items_price"`
	TaxPrice        decimal.Decimal `json:"tax_price"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	PlacedAt        time.Time       `json:"placed_at"`
}

type OrderPaid struct {
	OrderID string        `json:"order_id"`
	Result  PaymentResult `json:"result"`
	PaidAt  time.Time     `json:"paid_at"`
}

type OrderStatusUpdated struct {
	OrderID           string     `json:"order_id"`
	Status            Status     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	ShippingCarrier   Carrier    `json:"shipping_carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type OrderRefunded struct {
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	RefundedAt time.Time       `json:"refunded_at"`
}
