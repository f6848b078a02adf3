package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/infrastructure/store"
)

const AggregateType = "Inventory"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// maxAppendRetries bounds the optimistic-concurrency retry loop when two
// requests race on the same product.
const maxAppendRetries = 3

// Inventory tracks the available stock for one product. Reservations
// decrement it eagerly at order-placement time; compensation restores it.
// The stock counter never goes negative: a reservation that would underflow
// fails and appends nothing.
type Inventory struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Version   int    `json:"version"`
}

// Aggregate interface implementation
func (i *Inventory) GetID() string    { return i.ProductID }
func (i *Inventory) GetVersion() int  { return i.Version }
func (i *Inventory) SetVersion(v int) { i.Version = v }

// ApplyEvent applies a single event to the inventory state
func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockAdded:
		var data StockAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.Stock += data.Quantity
	case EventStockReserved:
		var data StockReserved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock -= data.Quantity
		if i.Stock < 0 {
			i.Stock = 0
		}
	case EventStockRestored:
		var data StockRestored
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Stock += data.Quantity
	}
	i.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Get loads the inventory for a product; a product with no stock history
// loads as zero stock.
func (s *Service) Get(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AddStock increases available stock (catalog management).
func (s *Service) AddStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, productID, func(inv *Inventory) (string, any, error) {
		return EventStockAdded, StockAdded{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		}, nil
	})
}

// Reserve decrements stock for an order line. The check and the decrement
// are a single conditional append: a concurrent reservation on the same
// product forces a reload instead of overselling.
func (s *Service) Reserve(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, productID, func(inv *Inventory) (string, any, error) {
		if inv.Stock < quantity {
			return "", nil, ErrInsufficientStock
		}
		return EventStockReserved, StockReserved{
			ProductID:  productID,
			OrderID:    orderID,
			Quantity:   quantity,
			ReservedAt: time.Now(),
		}, nil
	})
}

// Restore increments stock for a cancelled or abandoned reservation.
func (s *Service) Restore(ctx context.Context, productID, orderID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, productID, func(inv *Inventory) (string, any, error) {
		return EventStockRestored, StockRestored{
			ProductID:  productID,
			OrderID:    orderID,
			Quantity:   quantity,
			RestoredAt: time.Now(),
		}, nil
	})
}

// mutate loads the aggregate, lets decide produce an event against the
// loaded state, and appends it at the loaded version. Version conflicts
// reload and retry a bounded number of times.
func (s *Service) mutate(ctx context.Context, productID string, decide func(inv *Inventory) (string, any, error)) error {
	var lastErr error
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		inv, err := s.Get(ctx, productID)
		if err != nil {
			return err
		}

		eventType, data, err := decide(inv)
		if err != nil {
			return err
		}

		storedEvent, err := s.eventStore.AppendAt(ctx, productID, AggregateType, eventType, data, inv.Version)
		if err == nil {
			if applyErr := inv.ApplyEvent(*storedEvent); applyErr == nil {
				_ = aggregate.MaybeCreateSnapshot(ctx, s.eventStore, inv, AggregateType)
			}
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
