package inventory

import "time"

const (
	EventStockAdded    = "StockAdded"
	EventStockReserved = "StockReserved"
	EventStockRestored = "StockRestored"
)

type StockAdded struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// StockReserved is the eager decrement taken at order-placement time.
type StockReserved struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	ReservedAt time.Time `json:"reserved_at"`
}

// StockRestored is the compensating increment for a cancelled order line
// or an abandoned order intent.
type StockRestored struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	RestoredAt time.Time `json:"restored_at"`
}
