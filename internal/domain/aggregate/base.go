// Package aggregate holds the event-sourcing plumbing shared by all
// domain services: replay-based loading and threshold snapshotting.
package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
)

// Aggregate is anything that can rebuild itself from an event stream.
type Aggregate interface {
	GetID() string
	GetVersion() int
	SetVersion(int)
	ApplyEvent(store.Event) error
}

// LoadAggregate rebuilds an aggregate from its latest snapshot plus any
// newer events. The bool result reports whether the aggregate exists at
// all (no snapshot and no events means it was never created).
func LoadAggregate[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	var zero T
	agg := newAggregate()

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var tail []store.Event
	if snapshot == nil {
		tail = eventStore.GetEvents(id)
	} else {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		tail = eventStore.GetEventsFromVersion(ctx, id, snapshot.Version)
	}

	for _, event := range tail {
		if err := agg.ApplyEvent(event); err != nil {
			return zero, false, fmt.Errorf("failed to apply event: %w", err)
		}
	}

	return agg, snapshot != nil || len(tail) > 0, nil
}

// MaybeCreateSnapshot persists the aggregate state whenever its version
// lands on a SnapshotThreshold multiple. Callers invoke it after every
// append; most calls are no-ops.
func MaybeCreateSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType string,
) error {
	version := agg.GetVersion()
	if version == 0 || version%store.SnapshotThreshold != 0 {
		return nil
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	if err := eventStore.SaveSnapshot(ctx, &store.Snapshot{
		AggregateID:   agg.GetID(),
		AggregateType: aggregateType,
		Version:       version,
		State:         state,
		CreatedAt:     time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
