package store

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by AppendAt when another writer appended to
// the aggregate after the expected version was observed.
var ErrVersionConflict = errors.New("aggregate version conflict")

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	// Append stores an event at the next free version.
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)

	// AppendAt stores an event at exactly expectedVersion+1 and fails with
	// ErrVersionConflict if the aggregate has moved on. Used where a
	// check-then-act sequence must not interleave (stock reservation).
	AppendAt(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*Event, error)

	GetEvents(aggregateID string) []Event
	GetEventsFromVersion(ctx context.Context, aggregateID string, version int) []Event
	GetEventsByType(aggregateType string) []Event
	GetAllEvents() []Event

	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}
