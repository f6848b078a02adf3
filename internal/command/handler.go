package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/storefront/internal/domain/intent"
	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/readmodel"
)

// ErrPaymentNotConfirmed is returned when the processor reports an
// intent that has not (yet) succeeded.
var ErrPaymentNotConfirmed = errors.New("payment has not succeeded")

type Handler struct {
	productSvc   *product.Service
	orderSvc     *order.Service
	inventorySvc *inventory.Service
	intentSvc    *intent.Service
	readStore    store.ReadStoreInterface
	gateway      payment.Gateway
}

func NewHandler(
	productSvc *product.Service,
	orderSvc *order.Service,
	inventorySvc *inventory.Service,
	intentSvc *intent.Service,
	readStore store.ReadStoreInterface,
	gateway payment.Gateway,
) *Handler {
	return &Handler{
		productSvc:   productSvc,
		orderSvc:     orderSvc,
		inventorySvc: inventorySvc,
		intentSvc:    intentSvc,
		readStore:    readStore,
		gateway:      gateway,
	}
}

// CreateProduct creates a new product and seeds its inventory.
// Read models catch up asynchronously via the projector.
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	p, err := h.productSvc.Create(ctx, product.Fields{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		SalePrice:   cmd.SalePrice,
		SKU:         cmd.SKU,
		Image:       cmd.Image,
		Brand:       cmd.Brand,
		Category:    cmd.Category,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Stock > 0 {
		if err := h.inventorySvc.AddStock(ctx, p.ID, cmd.Stock); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// UpdateProduct updates a product
func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.productSvc.Update(ctx, cmd.ProductID, product.Fields{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		SalePrice:   cmd.SalePrice,
		Image:       cmd.Image,
		Brand:       cmd.Brand,
		Category:    cmd.Category,
	})
}

// DeleteProduct deletes a product
func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.productSvc.Delete(ctx, cmd.ProductID)
}

// AddStock tops up inventory for a product
func (h *Handler) AddStock(ctx context.Context, cmd AddStock) error {
	if _, err := h.lookupProduct(cmd.ProductID); err != nil {
		return err
	}
	return h.inventorySvc.AddStock(ctx, cmd.ProductID, cmd.Quantity)
}

// PlaceOrder runs the order placement saga: record an intent, reserve
// stock line by line, persist the order, finalize the intent. Any
// failure after the first reservation restores what was reserved and
// aborts the intent, so stock is never leaked by a half-placed order.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	if len(cmd.Lines) == 0 {
		return nil, order.ErrEmptyOrder
	}

	// Snapshot price, name and image per line from the catalog as it is
	// right now. The order keeps these even if the product changes later.
	items := make([]order.Item, 0, len(cmd.Lines))
	intentLines := make([]intent.Line, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		if line.Quantity <= 0 {
			return nil, inventory.ErrInvalidQuantity
		}
		prod, err := h.lookupProduct(line.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, order.Item{
			ProductID: prod.ID,
			Name:      prod.Name,
			Price:     prod.EffectivePrice(),
			Quantity:  line.Quantity,
			Image:     prod.Image,
			SKU:       prod.SKU,
		})
		intentLines = append(intentLines, intent.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	in, err := h.intentSvc.Record(ctx, cmd.UserID, intentLines)
	if err != nil {
		return nil, err
	}

	var reserved []intent.Line
	for _, line := range intentLines {
		if err := h.inventorySvc.Reserve(ctx, line.ProductID, in.ID, line.Quantity); err != nil {
			h.rollbackReservations(ctx, in.ID, reserved, err.Error())
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w for product %s", inventory.ErrInsufficientStock, line.ProductID)
			}
			return nil, err
		}
		reserved = append(reserved, line)
		if err := h.intentSvc.MarkReserved(ctx, in.ID, line.ProductID, line.Quantity); err != nil {
			log.Printf("[Command] Failed to mark line reserved on intent %s: %v", in.ID, err)
		}
	}

	o, err := h.orderSvc.Place(ctx, cmd.UserID, items, cmd.ShippingAddress, cmd.PaymentMethod, cmd.Notes)
	if err != nil {
		h.rollbackReservations(ctx, in.ID, reserved, err.Error())
		return nil, err
	}

	if err := h.intentSvc.Finalize(ctx, in.ID, o.ID); err != nil {
		// The order exists and its stock is reserved; the sweep must not
		// undo it. Log loudly instead of failing the placement.
		log.Printf("[Command] Failed to finalize intent %s for order %s: %v", in.ID, o.ID, err)
	}

	return o, nil
}

// CreatePaymentIntent asks the processor for a payment intent covering
// the order total.
func (h *Handler) CreatePaymentIntent(ctx context.Context, orderID string) (*payment.Intent, error) {
	o, err := h.orderSvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return h.gateway.CreateIntent(ctx, payment.AmountToCents(o.TotalPrice), "usd", map[string]string{
		"order_id": o.ID,
	})
}

// ConfirmPayment verifies the intent with the processor and marks the
// order paid. Confirming an already-paid order is a no-op.
func (h *Handler) ConfirmPayment(ctx context.Context, cmd ConfirmPayment) error {
	pi, err := h.gateway.RetrieveIntent(ctx, cmd.PaymentIntentID)
	if err != nil {
		return err
	}
	if pi.Status != payment.IntentStatusSucceeded {
		return ErrPaymentNotConfirmed
	}

	return h.orderSvc.ProcessPayment(ctx, cmd.OrderID, order.PaymentResult{
		ID:         pi.ID,
		Status:     pi.Status,
		UpdateTime: time.Now(),
		PayerEmail: pi.ReceiptEmail,
	})
}

// RecordPaymentSucceeded marks the order paid from an already-verified
// webhook notification, without a processor round trip.
func (h *Handler) RecordPaymentSucceeded(ctx context.Context, orderID string, result order.PaymentResult) error {
	return h.orderSvc.ProcessPayment(ctx, orderID, result)
}

// UpdateOrderStatus applies an operator status change
func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) error {
	return h.orderSvc.UpdateStatus(ctx, cmd.OrderID, order.StatusUpdate{
		Status:            cmd.Status,
		Notes:             cmd.Notes,
		TrackingNumber:    cmd.TrackingNumber,
		ShippingCarrier:   cmd.ShippingCarrier,
		EstimatedDelivery: cmd.EstimatedDelivery,
	})
}

// CancelOrder cancels the order, then restores the stock its lines
// reserved. The cancellation write is the commit point: once it lands a
// second cancel is rejected, so the restore runs at most once per line.
func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) error {
	o, err := h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.Reason)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		if err := h.inventorySvc.Restore(ctx, item.ProductID, o.ID, item.Quantity); err != nil {
			log.Printf("[Command] Failed to restore stock for product %s on cancelled order %s: %v",
				item.ProductID, o.ID, err)
		}
	}
	return nil
}

// RefundOrder refunds through the processor first, then records the
// refund locally. If the processor call fails nothing changes locally.
func (h *Handler) RefundOrder(ctx context.Context, cmd RefundOrder) error {
	o, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if cmd.Amount.IsZero() || cmd.Amount.IsNegative() || cmd.Amount.GreaterThan(o.TotalPrice) {
		return order.ErrInvalidAmount
	}

	if o.PaymentResult != nil && o.PaymentResult.ID != "" {
		if _, err := h.gateway.CreateRefund(ctx, o.PaymentResult.ID, payment.AmountToCents(cmd.Amount)); err != nil {
			return err
		}
	}

	return h.orderSvc.Refund(ctx, cmd.OrderID, cmd.Amount, cmd.Reason)
}

// SweepAbandonedIntents restores reservations held by intents that have
// been open longer than olderThan and aborts them. Returns the number
// of intents cleaned up.
func (h *Handler) SweepAbandonedIntents(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	open, err := h.intentSvc.ListOpenOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, in := range open {
		h.rollbackReservations(ctx, in.ID, in.Reserved, "abandoned")
		swept++
		log.Printf("[Command] Swept abandoned intent %s (%d reserved lines)", in.ID, len(in.Reserved))
	}
	return swept, nil
}

func (h *Handler) rollbackReservations(ctx context.Context, intentID string, reserved []intent.Line, reason string) {
	for _, line := range reserved {
		if err := h.inventorySvc.Restore(ctx, line.ProductID, intentID, line.Quantity); err != nil {
			log.Printf("[Command] Failed to restore stock for product %s on intent %s: %v",
				line.ProductID, intentID, err)
		}
	}
	if err := h.intentSvc.Abort(ctx, intentID, reason); err != nil {
		log.Printf("[Command] Failed to abort intent %s: %v", intentID, err)
	}
}

func (h *Handler) lookupProduct(productID string) (*readmodel.ProductReadModel, error) {
	p, ok, err := h.readStore.Get(readmodel.CollectionProducts, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	prod, ok := p.(*readmodel.ProductReadModel)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return prod, nil
}
