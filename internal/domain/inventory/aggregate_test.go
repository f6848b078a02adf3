package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInventoryService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

// ============================================
// AddStock Tests
// ============================================

func TestService_AddStock_Success(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	err := service.AddStock(ctx, "prod-1", 10)

	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventStockAdded, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
	// Conditional append at the loaded version (0 for a fresh aggregate)
	assert.Equal(t, 0, eventStore.AppendCalls[0].ExpectedVersion)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Stock)
}

func TestService_AddStock_Accumulates(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", 10))
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 15, inv.Stock)
}

func TestService_AddStock_RejectsNonPositive(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	assert.ErrorIs(t, service.AddStock(ctx, "prod-1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, service.AddStock(ctx, "prod-1", -3), ErrInvalidQuantity)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Reserve Tests
// ============================================

func TestService_Reserve_Success(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))
	eventStore.AppendCalls = nil

	err := service.Reserve(ctx, "prod-1", "order-1", 2)

	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventStockReserved, eventStore.AppendCalls[0].EventType)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 3, inv.Stock)
}

func TestService_Reserve_InsufficientStock(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))
	eventStore.AppendCalls = nil

	err := service.Reserve(ctx, "prod-1", "order-1", 6)

	assert.ErrorIs(t, err, ErrInsufficientStock)
	// The failed reservation appends nothing; stock is untouched
	assert.Empty(t, eventStore.AppendCalls)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Stock)
}

func TestService_Reserve_ExactStock(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))

	err := service.Reserve(ctx, "prod-1", "order-1", 5)

	require.NoError(t, err)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, inv.Stock)
}

func TestService_Reserve_NoStockHistory(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	err := service.Reserve(ctx, "prod-unknown", "order-1", 1)

	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_Reserve_RejectsNonPositive(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	assert.ErrorIs(t, service.Reserve(ctx, "prod-1", "order-1", 0), ErrInvalidQuantity)
}

func TestService_Reserve_RetriesOnVersionConflict(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))
	eventStore.AppendCalls = nil

	// First append loses the race; the retry reloads and succeeds
	calls := 0
	eventStore.AppendCallback = func(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
		calls++
		if calls == 1 {
			return nil, store.ErrVersionConflict
		}
		return &store.Event{
			AggregateID:   aggregateID,
			AggregateType: aggregateType,
			EventType:     eventType,
			Version:       2,
		}, nil
	}

	err := service.Reserve(ctx, "prod-1", "order-1", 2)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestService_Reserve_GivesUpAfterRepeatedConflicts(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))

	eventStore.AppendCallback = func(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
		return nil, store.ErrVersionConflict
	}

	err := service.Reserve(ctx, "prod-1", "order-1", 2)

	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

func TestService_Reserve_NonConflictErrorNotRetried(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))
	eventStore.AppendCalls = nil

	eventStore.AppendErr = errors.New("database error")

	err := service.Reserve(ctx, "prod-1", "order-1", 2)

	assert.Error(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
}

// ============================================
// Restore Tests
// ============================================

func TestService_Restore_Success(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()
	require.NoError(t, service.AddStock(ctx, "prod-1", 5))
	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", 3))

	err := service.Restore(ctx, "prod-1", "order-1", 3)

	require.NoError(t, err)

	inv, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Stock)
}

func TestService_Restore_RejectsNonPositive(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	assert.ErrorIs(t, service.Restore(ctx, "prod-1", "order-1", 0), ErrInvalidQuantity)
}

// ============================================
// Rebuild Tests
// ============================================

func TestInventory_StockNeverNegativeOnReplay(t *testing.T) {
	// A historically corrupt stream (over-reservation) clamps at zero
	// instead of going negative.
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	_ = eventStore.AddEvent("prod-1", AggregateType, EventStockAdded, StockAdded{ProductID: "prod-1", Quantity: 2, AddedAt: time.Now()})
	_ = eventStore.AddEvent("prod-1", AggregateType, EventStockReserved, StockReserved{ProductID: "prod-1", OrderID: "order-1", Quantity: 5, ReservedAt: time.Now()})

	inv, err := service.Get(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, 0, inv.Stock)
}

func TestInventory_RebuildFromMixedEvents(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	_ = eventStore.AddEvent("prod-1", AggregateType, EventStockAdded, StockAdded{ProductID: "prod-1", Quantity: 10, AddedAt: time.Now()})
	_ = eventStore.AddEvent("prod-1", AggregateType, EventStockReserved, StockReserved{ProductID: "prod-1", OrderID: "order-1", Quantity: 4, ReservedAt: time.Now()})
	_ = eventStore.AddEvent("prod-1", AggregateType, EventStockRestored, StockRestored{ProductID: "prod-1", OrderID: "order-1", Quantity: 4, RestoredAt: time.Now()})
	_ = eventStore.AddEvent("prod-1", AggregateType, EventStockReserved, StockReserved{ProductID: "prod-1", OrderID: "order-2", Quantity: 2, ReservedAt: time.Now()})

	inv, err := service.Get(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, 8, inv.Stock)
	assert.Equal(t, 4, inv.Version)
}
