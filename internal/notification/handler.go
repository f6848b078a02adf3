package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
)

// Handler sends customer emails in response to order events.
type Handler struct {
	emailService *email.Service
	readStore    store.ReadStoreInterface
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
	}
}

// HandleEvent processes an event from the stream
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case order.EventOrderStatusUpdated:
		return h.handleStatusUpdated(event)
	}

	return nil
}

func (h *Handler) handleOrderPlaced(event store.Event) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	recipient := h.lookupEmail(e.UserID)
	if recipient == "" {
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		emailItems[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	orderNumber := (&order.Order{ID: e.OrderID}).OrderNumber()
	if err := h.emailService.SendOrderConfirmation(recipient, orderNumber, e.TotalPrice, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send confirmation email to %s: %v", recipient, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", recipient, e.OrderID)
	return nil
}

func (h *Handler) handleStatusUpdated(event store.Event) error {
	var e order.OrderStatusUpdated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderStatusUpdated event: %v", err)
		return err
	}

	// Only the shipped transition carries a customer-facing email, and
	// only when tracking details are attached.
	if e.Status != order.StatusShipped || e.TrackingNumber == "" {
		return nil
	}

	orderData, exists, err := h.readStore.Get(readmodel.CollectionOrders, e.OrderID)
	if err != nil || !exists {
		log.Printf("[Notifier] Order not found for shipped notification: %s", e.OrderID)
		return nil
	}
	orderModel, ok := orderData.(*readmodel.OrderReadModel)
	if !ok {
		return nil
	}

	recipient := h.lookupEmail(orderModel.UserID)
	if recipient == "" {
		return nil
	}

	estimate := ""
	if e.EstimatedDelivery != nil {
		estimate = e.EstimatedDelivery.Format(time.DateOnly)
	}

	carrier := string(e.ShippingCarrier)
	if carrier == "" {
		carrier = orderModel.Carrier
	}

	if err := h.emailService.SendOrderShipped(recipient, orderModel.OrderNumber, carrier, e.TrackingNumber, estimate); err != nil {
		log.Printf("[Notifier] Failed to send shipped email to %s: %v", recipient, err)
		return err
	}

	log.Printf("[Notifier] Shipped email sent to %s for order %s", recipient, e.OrderID)
	return nil
}

func (h *Handler) lookupEmail(userID string) string {
	userData, exists, err := h.readStore.Get(readmodel.CollectionUsers, userID)
	if err != nil {
		log.Printf("[Notifier] Error getting user %s: %v", userID, err)
		return ""
	}
	if !exists {
		log.Printf("[Notifier] User not found: %s", userID)
		return ""
	}
	userModel, ok := userData.(*readmodel.UserReadModel)
	if !ok {
		log.Printf("[Notifier] Invalid user data type for user: %s", userID)
		return ""
	}
	return userModel.Email
}
