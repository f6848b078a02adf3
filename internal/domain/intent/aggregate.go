// Package intent implements the durable order-intent record written before
// any stock is mutated during order placement. It is what makes the
// multi-product "reserve N stocks, insert one order" sequence recoverable:
// a crash mid-way leaves an open intent whose reserved lines a sweep can
// restore, instead of silently leaking inventory.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/aggregate"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "OrderIntent"

type State string

const (
	StateOpen      State = "open"
	StateFinalized State = "finalized"
	StateAborted   State = "aborted"
)

var ErrIntentNotFound = errors.New("order intent not found")

type Intent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Lines      []Line    `json:"lines"`
	Reserved   []Line    `json:"reserved"`
	OrderID    string    `json:"order_id,omitempty"`
	State      State     `json:"state"`
	RecordedAt time.Time `json:"recorded_at"`
	Version    int       `json:"version"`
}

// Aggregate interface implementation
func (i *Intent) GetID() string    { return i.ID }
func (i *Intent) GetVersion() int  { return i.Version }
func (i *Intent) SetVersion(v int) { i.Version = v }

func (i *Intent) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventIntentRecorded:
		var data IntentRecorded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ID = data.IntentID
		i.UserID = data.UserID
		i.Lines = data.Lines
		i.State = StateOpen
		i.RecordedAt = data.RecordedAt
	case EventIntentLineReserved:
		var data IntentLineReserved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.Reserved = append(i.Reserved, Line{ProductID: data.ProductID, Quantity: data.Quantity})
	case EventIntentFinalized:
		var data IntentFinalized
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.OrderID = data.OrderID
		i.State = StateFinalized
	case EventIntentAborted:
		i.State = StateAborted
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

// Record writes a new open intent covering the given lines. Nothing has
// been reserved yet when this returns.
func (s *Service) Record(ctx context.Context, userID string, lines []Line) (*Intent, error) {
	intentID := uuid.New().String()
	now := time.Now()

	event := IntentRecorded{
		IntentID:   intentID,
		UserID:     userID,
		Lines:      lines,
		RecordedAt: now,
	}
	storedEvent, err := s.eventStore.Append(ctx, intentID, AggregateType, EventIntentRecorded, event)
	if err != nil {
		return nil, err
	}

	in := &Intent{
		ID:         intentID,
		UserID:     userID,
		Lines:      lines,
		State:      StateOpen,
		RecordedAt: now,
	}
	if storedEvent != nil {
		in.Version = storedEvent.Version
	}
	return in, nil
}

// MarkReserved records that one line's stock decrement succeeded.
func (s *Service) MarkReserved(ctx context.Context, intentID, productID string, quantity int) error {
	event := IntentLineReserved{
		IntentID:   intentID,
		ProductID:  productID,
		Quantity:   quantity,
		ReservedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, intentID, AggregateType, EventIntentLineReserved, event)
	return err
}

// Finalize closes the intent after the order was persisted.
func (s *Service) Finalize(ctx context.Context, intentID, orderID string) error {
	event := IntentFinalized{
		IntentID:    intentID,
		OrderID:     orderID,
		FinalizedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, intentID, AggregateType, EventIntentFinalized, event)
	return err
}

// Abort closes the intent after its reservations were rolled back.
func (s *Service) Abort(ctx context.Context, intentID, reason string) error {
	event := IntentAborted{
		IntentID:  intentID,
		Reason:    reason,
		AbortedAt: time.Now(),
	}
	_, err := s.eventStore.Append(ctx, intentID, AggregateType, EventIntentAborted, event)
	return err
}

// Get loads a single intent.
func (s *Service) Get(ctx context.Context, intentID string) (*Intent, error) {
	in, found, err := aggregate.LoadAggregate(ctx, s.eventStore, intentID, func() *Intent {
		return &Intent{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrIntentNotFound
	}
	return in, nil
}

// ListOpenOlderThan rebuilds all intents and returns the ones still open
// at the cutoff. Used by the recovery sweep.
func (s *Service) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*Intent, error) {
	events := s.eventStore.GetEventsByType(AggregateType)

	byID := make(map[string]*Intent)
	var orderOfAppearance []string
	for _, event := range events {
		in, ok := byID[event.AggregateID]
		if !ok {
			in = &Intent{}
			byID[event.AggregateID] = in
			orderOfAppearance = append(orderOfAppearance, event.AggregateID)
		}
		if err := in.ApplyEvent(event); err != nil {
			return nil, err
		}
	}

	var open []*Intent
	for _, id := range orderOfAppearance {
		in := byID[id]
		if in.State == StateOpen && in.RecordedAt.Before(cutoff) {
			open = append(open, in)
		}
	}
	return open, nil
}
