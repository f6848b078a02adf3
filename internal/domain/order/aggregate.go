package order

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
	StatusRefunded   Status = "Refunded"
)

// Valid reports whether s is a member of the status enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCreditCard     PaymentMethod = "Credit Card"
	MethodPayPal         PaymentMethod = "PayPal"
	MethodStripe         PaymentMethod = "Stripe"
	MethodCashOnDelivery PaymentMethod = "Cash on Delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodPayPal, MethodStripe, MethodCashOnDelivery:
		return true
	}
	return false
}

type Carrier string

const (
	CarrierUSPS  Carrier = "USPS"
	CarrierFedEx Carrier = "FedEx"
	CarrierUPS   Carrier = "UPS"
	CarrierDHL   Carrier = "DHL"
	CarrierOther Carrier = "Other"
)

func (c Carrier) Valid() bool {
	switch c {
	case CarrierUSPS, CarrierFedEx, CarrierUPS, CarrierDHL, CarrierOther:
		return true
	}
	return false
}

const DefaultCountry = "United States"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidCarrier    = errors.New("invalid shipping carrier")
	ErrInvalidTransition = errors.New("order cannot be cancelled in its current status")
	ErrInvalidAmount     = errors.New("refund amount exceeds order total")
)

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Items             []Item          `json:"items"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	PaymentResult     *PaymentResult  `json:"payment_result,omitempty"`
	ItemsPrice        decimal.Decimal `json:"items_price"`
	TaxPrice          decimal.Decimal `json:"tax_price"`
	ShippingPrice     decimal.Decimal `json:"shipping_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            Status          `json:"status"`
	IsPaid            bool            `json:"is_paid"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	IsDelivered       bool            `json:"is_delivered"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	ShippingCarrier   Carrier         `json:"shipping_carrier,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	RefundAmount      decimal.Decimal `json:"refund_amount"`
	RefundReason      string          `json:"refund_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// OrderNumber is the customer-facing short id, derived and never persisted.
func (o *Order) OrderNumber() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "#" + strings.ToUpper(id)
}

// CanCancel reports whether the order may still be cancelled. Delivered and
// Cancelled are terminal for cancellation purposes.
func (o *Order) CanCancel() bool {
	return o.Status != StatusDelivered && o.Status != StatusCancelled
}

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.UserID = data.UserID
		o.Items = data.Items
		o.ShippingAddress = data.ShippingAddress
		o.PaymentMethod = data.PaymentMethod
		o.Notes = data.Notes
		o.ItemsPrice = data.ItemsPrice
		o.TaxPrice = data.TaxPrice
		o.ShippingPrice = data.ShippingPrice
		o.TotalPrice = data.TotalPrice
		o.Status = StatusPending
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderPaid:
		var data OrderPaid
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if !o.IsPaid {
			o.IsPaid = true
			paidAt := data.PaidAt
			o.PaidAt = &paidAt
			result := data.Result
			o.PaymentResult = &result
			o.Status = StatusProcessing
		}
		o.UpdatedAt = data.PaidAt
	case EventOrderStatusUpdated:
		var data OrderStatusUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.Status
		if data.Status == StatusDelivered && !o.IsDelivered {
			o.IsDelivered = true
			deliveredAt := data.UpdatedAt
			o.DeliveredAt = &deliveredAt
		}
		if data.Notes != "" {
			o.Notes = data.Notes
		}
		if data.TrackingNumber != "" {
			o.TrackingNumber = data.TrackingNumber
		}
		if data.ShippingCarrier != "" {
			o.ShippingCarrier = data.ShippingCarrier
		}
		if data.EstimatedDelivery != nil {
			o.EstimatedDelivery = data.EstimatedDelivery
		}
		o.UpdatedAt = data.UpdatedAt
	case EventOrderCancelled:
		var data OrderCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusCancelled
		o.CancelReason = data.Reason
		o.UpdatedAt = data.CancelledAt
	case EventOrderRefunded:
		var data OrderRefunded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusRefunded
		o.RefundAmount = data.Amount
		o.RefundReason = data.Reason
		o.UpdatedAt = data.RefundedAt
	}
	o.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
	pricing    PricingConfig
}

func NewService(es store.EventStoreInterface, pricing PricingConfig) *Service {
	return &Service{eventStore: es, pricing: pricing}
}

// Get loads an order by replaying events, using a snapshot if available.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	order, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Place persists a new order in Pending status. Items must already be
// validated snapshots; totals are computed here so they always agree with
// the lines they were derived from.
func (s *Service) Place(ctx context.Context, userID string, items []Item, addr ShippingAddress, method PaymentMethod, notes string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}

	orderID := uuid.New().String()
	now := time.Now()
	totals := ComputeTotals(items, s.pricing)

	event := OrderPlaced{
		OrderID:         orderID,
		UserID:          userID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Notes:           notes,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		PlacedAt:        now,
	}

	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPlaced, event)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:              orderID,
		UserID:          userID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Notes:           notes,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		Status:          StatusPending,
		RefundAmount:    decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if storedEvent != nil {
		order.Version = storedEvent.Version
	}

	s.snapshot(ctx, order)
	return order, nil
}

// ProcessPayment marks the order paid and moves it to Processing. A
// confirmation for an already-paid order is a silent no-op: gateway
// webhooks retry and must not double-transition.
func (s *Service) ProcessPayment(ctx context.Context, orderID string, result PaymentResult) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.IsPaid {
		return nil
	}

	now := time.Now()
	event := OrderPaid{OrderID: orderID, Result: result, PaidAt: now}
	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderPaid, event)
	if err != nil {
		return err
	}

	// Apply the stored event rather than hand-mutating, so a snapshot
	// taken now captures exactly what replay would rebuild.
	if err := order.ApplyEvent(*storedEvent); err != nil {
		return err
	}
	s.snapshot(ctx, order)
	return nil
}

// StatusUpdate carries the operator-supplied fields of an UpdateStatus call.
type StatusUpdate struct {
	Status            Status
	Notes             string
	TrackingNumber    string
	ShippingCarrier   Carrier
	EstimatedDelivery *time.Time
}

// UpdateStatus applies an operator-driven status change. Only enum
// membership is validated; the happy-path ordering is deliberately not
// enforced, matching the system this one replaces.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) error {
	if !update.Status.Valid() {
		return ErrInvalidStatus
	}
	if update.ShippingCarrier != "" && !update.ShippingCarrier.Valid() {
		return ErrInvalidCarrier
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}

	event := OrderStatusUpdated{
		OrderID:           orderID,
		Status:            update.Status,
		Notes:             update.Notes,
		TrackingNumber:    update.TrackingNumber,
		ShippingCarrier:   update.ShippingCarrier,
		EstimatedDelivery: update.EstimatedDelivery,
		UpdatedAt:         time.Now(),
	}
	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderStatusUpdated, event)
	if err != nil {
		return err
	}

	// The event carries more than the status (delivery stamp, tracking,
	// carrier, notes); apply it so the snapshot state is complete.
	if err := order.ApplyEvent(*storedEvent); err != nil {
		return err
	}
	s.snapshot(ctx, order)
	return nil
}

// Cancel transitions the order to Cancelled. It returns the order so the
// caller can compensate the stock its lines reserved.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanCancel() {
		return nil, ErrInvalidTransition
	}

	event := OrderCancelled{OrderID: orderID, Reason: reason, CancelledAt: time.Now()}
	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderCancelled, event)
	if err != nil {
		return nil, err
	}

	if err := order.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}
	s.snapshot(ctx, order)
	return order, nil
}

// Refund transitions the order to Refunded. Gateway interaction is the
// caller's responsibility and must happen before this local write.
func (s *Service) Refund(ctx context.Context, orderID string, amount decimal.Decimal, reason string) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(order.TotalPrice) {
		return ErrInvalidAmount
	}

	event := OrderRefunded{OrderID: orderID, Amount: amount, Reason: reason, RefundedAt: time.Now()}
	storedEvent, err := s.eventStore.Append(ctx, orderID, AggregateType, EventOrderRefunded, event)
	if err != nil {
		return err
	}

	if err := order.ApplyEvent(*storedEvent); err != nil {
		return err
	}
	s.snapshot(ctx, order)
	return nil
}

func (s *Service) snapshot(ctx context.Context, order *Order) {
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, order, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", order.ID, err)
	}
}
