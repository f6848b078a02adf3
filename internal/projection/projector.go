// Package projection consumes the event stream and keeps the read
// models current. Projections are rebuildable: replaying the full event
// stream through HandleStoredEvent reproduces them from scratch.
package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

// HandleEvent is the Kafka consumer entry point.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)
	return p.HandleStoredEvent(event)
}

// HandleStoredEvent projects one already-decoded event. Used both by the
// consumer path and by startup replay.
func (p *Projector) HandleStoredEvent(event store.Event) error {
	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	}

	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.CollectionProducts, e.ProductID, &readmodel.ProductReadModel{
			ID:          e.ProductID,
			Name:        e.Name,
			Description: e.Description,
			Price:       e.Price,
			SalePrice:   e.SalePrice,
			SKU:         e.SKU,
			Image:       e.Image,
			Brand:       e.Brand,
			Category:    e.Category,
			Stock:       0,
			Status:      readmodel.ProductStatusOutOfStock,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		})

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Name = e.Name
			prod.Description = e.Description
			prod.Price = e.Price
			prod.SalePrice = e.SalePrice
			prod.Image = e.Image
			prod.Brand = e.Brand
			prod.Category = e.Category
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})
		return err

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Delete(readmodel.CollectionProducts, e.ProductID)
	}

	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		model := &readmodel.OrderReadModel{
			ID:              e.OrderID,
			UserID:          e.UserID,
			Items:           e.Items,
			ShippingAddress: e.ShippingAddress,
			PaymentMethod:   string(e.PaymentMethod),
			ItemsPrice:      e.ItemsPrice,
			TaxPrice:        e.TaxPrice,
			ShippingPrice:   e.ShippingPrice,
			TotalPrice:      e.TotalPrice,
			Status:          string(order.StatusPending),
			Notes:           e.Notes,
			CreatedAt:       e.PlacedAt,
			UpdatedAt:       e.PlacedAt,
		}
		model.OrderNumber = (&order.Order{ID: e.OrderID}).OrderNumber()
		return p.readStore.Set(readmodel.CollectionOrders, e.OrderID, model)

	case order.EventOrderPaid:
		var e order.OrderPaid
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			if !o.IsPaid {
				o.IsPaid = true
				paidAt := e.PaidAt
				o.PaidAt = &paidAt
				result := e.Result
				o.PaymentResult = &result
				o.Status = string(order.StatusProcessing)
			}
			o.UpdatedAt = e.PaidAt
			return o
		})
		return err

	case order.EventOrderStatusUpdated:
		var e order.OrderStatusUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(e.Status)
			if e.Status == order.StatusDelivered && !o.IsDelivered {
				o.IsDelivered = true
				deliveredAt := e.UpdatedAt
				o.DeliveredAt = &deliveredAt
			}
			if e.Notes != "" {
				o.Notes = e.Notes
			}
			if e.TrackingNumber != "" {
				o.TrackingNumber = e.TrackingNumber
			}
			if e.ShippingCarrier != "" {
				o.Carrier = string(e.ShippingCarrier)
			}
			if e.EstimatedDelivery != nil {
				o.EstimatedDelivery = e.EstimatedDelivery
			}
			o.UpdatedAt = e.UpdatedAt
			return o
		})
		return err

	case order.EventOrderCancelled:
		var e order.OrderCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(order.StatusCancelled)
			cancelledAt := e.CancelledAt
			o.CancelledAt = &cancelledAt
			o.CancelReason = e.Reason
			o.UpdatedAt = e.CancelledAt
			return o
		})
		return err

	case order.EventOrderRefunded:
		var e order.OrderRefunded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionOrders, e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(order.StatusRefunded)
			o.RefundAmount = e.Amount
			refundedAt := e.RefundedAt
			o.RefundedAt = &refundedAt
			o.UpdatedAt = e.RefundedAt
			return o
		})
		return err
	}

	return nil
}

func (p *Projector) handleInventoryEvent(event store.Event) error {
	switch event.EventType {
	case inventory.EventStockAdded:
		var e inventory.StockAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.adjustStock(e.ProductID, e.Quantity, e.AddedAt)

	case inventory.EventStockReserved:
		var e inventory.StockReserved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.adjustStock(e.ProductID, -e.Quantity, e.ReservedAt)

	case inventory.EventStockRestored:
		var e inventory.StockRestored
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.adjustStock(e.ProductID, e.Quantity, e.RestoredAt)
	}

	return nil
}

// adjustStock applies a stock delta to the inventory view and mirrors
// the resulting level, and the derived status, onto the product view.
func (p *Projector) adjustStock(productID string, delta int, at time.Time) error {
	_, ok, err := p.readStore.Get(readmodel.CollectionInventory, productID)
	if err != nil {
		return err
	}
	if !ok {
		if err := p.readStore.Set(readmodel.CollectionInventory, productID, &readmodel.InventoryReadModel{
			ProductID: productID,
			Stock:     0,
			UpdatedAt: at,
		}); err != nil {
			return err
		}
	}

	var level int
	_, err = p.readStore.Update(readmodel.CollectionInventory, productID, func(current any) any {
		inv := current.(*readmodel.InventoryReadModel)
		inv.Stock += delta
		if inv.Stock < 0 {
			inv.Stock = 0
		}
		inv.UpdatedAt = at
		level = inv.Stock
		return inv
	})
	if err != nil {
		return err
	}

	_, err = p.readStore.Update(readmodel.CollectionProducts, productID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		prod.Stock = level
		if level > 0 {
			prod.Status = readmodel.ProductStatusActive
		} else {
			prod.Status = readmodel.ProductStatusOutOfStock
		}
		prod.UpdatedAt = at
		return prod
	})
	return err
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserRegistered:
		var e user.UserRegistered
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.Set(readmodel.CollectionUsers, e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Role:         e.Role,
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case user.EventUserProfileUpdated:
		var e user.UserProfileUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.Name = e.Name
			u.Phone = e.Phone
			u.UpdatedAt = e.UpdatedAt
			return u
		})
		return err

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})
		return err

	case user.EventUserLoggedIn:
		var e user.UserLoggedIn
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			loggedAt := e.LoggedAt
			u.LastLoginAt = &loggedAt
			u.UpdatedAt = e.LoggedAt
			return u
		})
		return err

	case user.EventUserLoggedOut:
		var e user.UserLoggedOut
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		// Session documents are owned by the auth handlers; the logout
		// event only closes out any leftover one.
		if e.SessionID != "" {
			return p.readStore.Delete(readmodel.CollectionSessions, e.SessionID)
		}
		return nil

	case user.EventUserDeactivated:
		var e user.UserDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			u.UpdatedAt = e.DeactivatedAt
			return u
		})
		return err

	case user.EventUserActivated:
		var e user.UserActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		_, err := p.readStore.Update(readmodel.CollectionUsers, e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			u.UpdatedAt = e.ActivatedAt
			return u
		})
		return err
	}

	return nil
}

// Replay projects every stored event in order, rebuilding the read
// models from the event store.
func (p *Projector) Replay(events []store.Event) error {
	for _, event := range events {
		if err := p.HandleStoredEvent(event); err != nil {
			return err
		}
	}
	return nil
}
