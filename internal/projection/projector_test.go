package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *store.ReadStore) {
	readStore := store.NewReadStore()
	return NewProjector(readStore), readStore
}

func makeEvent(aggregateID, aggregateType, eventType string, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-123",
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Version:       1,
		Timestamp:     time.Now(),
	}
	result, _ := json.Marshal(event)
	return result
}

func getProduct(t *testing.T, rs *store.ReadStore, id string) *readmodel.ProductReadModel {
	t.Helper()
	data, ok, err := rs.Get(readmodel.CollectionProducts, id)
	require.NoError(t, err)
	require.True(t, ok)
	return data.(*readmodel.ProductReadModel)
}

func getOrder(t *testing.T, rs *store.ReadStore, id string) *readmodel.OrderReadModel {
	t.Helper()
	data, ok, err := rs.Get(readmodel.CollectionOrders, id)
	require.NoError(t, err)
	require.True(t, ok)
	return data.(*readmodel.OrderReadModel)
}

func getUser(t *testing.T, rs *store.ReadStore, id string) *readmodel.UserReadModel {
	t.Helper()
	data, ok, err := rs.Get(readmodel.CollectionUsers, id)
	require.NoError(t, err)
	require.True(t, ok)
	return data.(*readmodel.UserReadModel)
}

// ============================================
// Product Event Tests
// ============================================

func TestProjector_HandleProductCreated(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	sale := decimal.RequireFromString("7.50")
	eventData := product.ProductCreated{
		ProductID:   "prod-123",
		Name:        "Test Product",
		Description: "A test product",
		Price:       decimal.RequireFromString("10.00"),
		SalePrice:   &sale,
		Brand:       "Acme",
		CreatedAt:   time.Now(),
	}

	value := makeEvent("prod-123", product.AggregateType, product.EventProductCreated, eventData)

	err := projector.HandleEvent(ctx, nil, value)

	require.NoError(t, err)
	prod := getProduct(t, readStore, "prod-123")
	assert.Equal(t, "Test Product", prod.Name)
	assert.True(t, prod.Price.Equal(decimal.RequireFromString("10.00")))
	require.NotNil(t, prod.SalePrice)
	assert.True(t, prod.SalePrice.Equal(sale))
	// No stock has been added yet
	assert.Equal(t, 0, prod.Stock)
	assert.Equal(t, readmodel.ProductStatusOutOfStock, prod.Status)
}

func TestProjector_HandleProductUpdated(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, readStore.Set(readmodel.CollectionProducts, "prod-123", &readmodel.ProductReadModel{
		ID:    "prod-123",
		Name:  "Old Name",
		Price: decimal.RequireFromString("5.00"),
		Stock: 3,
	}))

	eventData := product.ProductUpdated{
		ProductID:   "prod-123",
		Name:        "New Name",
		Description: "Updated description",
		Price:       decimal.RequireFromString("20.00"),
		UpdatedAt:   time.Now(),
	}

	value := makeEvent("prod-123", product.AggregateType, product.EventProductUpdated, eventData)

	err := projector.HandleEvent(ctx, nil, value)

	require.NoError(t, err)
	prod := getProduct(t, readStore, "prod-123")
	assert.Equal(t, "New Name", prod.Name)
	assert.True(t, prod.Price.Equal(decimal.RequireFromString("20.00")))
	// Stock is owned by inventory events, not product updates
	assert.Equal(t, 3, prod.Stock)
}

func TestProjector_HandleProductDeleted(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, readStore.Set(readmodel.CollectionProducts, "prod-123", &readmodel.ProductReadModel{ID: "prod-123"}))

	value := makeEvent("prod-123", product.AggregateType, product.EventProductDeleted, product.ProductDeleted{
		ProductID: "prod-123",
		DeletedAt: time.Now(),
	})

	err := projector.HandleEvent(ctx, nil, value)

	require.NoError(t, err)
	_, ok, err := readStore.Get(readmodel.CollectionProducts, "prod-123")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ============================================
// Inventory Event Tests
// ============================================

func TestProjector_StockEventsMirrorOntoProduct(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, readStore.Set(readmodel.CollectionProducts, "prod-123", &readmodel.ProductReadModel{
		ID:     "prod-123",
		Name:   "Widget",
		Status: readmodel.ProductStatusOutOfStock,
	}))

	added := makeEvent("prod-123", inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{
		ProductID: "prod-123", Quantity: 5, AddedAt: time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, added))

	prod := getProduct(t, readStore, "prod-123")
	assert.Equal(t, 5, prod.Stock)
	assert.Equal(t, readmodel.ProductStatusActive, prod.Status)

	reserved := makeEvent("prod-123", inventory.AggregateType, inventory.EventStockReserved, inventory.StockReserved{
		ProductID: "prod-123", OrderID: "order-1", Quantity: 5, ReservedAt: time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, reserved))

	prod = getProduct(t, readStore, "prod-123")
	assert.Equal(t, 0, prod.Stock)
	assert.Equal(t, readmodel.ProductStatusOutOfStock, prod.Status)

	restored := makeEvent("prod-123", inventory.AggregateType, inventory.EventStockRestored, inventory.StockRestored{
		ProductID: "prod-123", OrderID: "order-1", Quantity: 2, RestoredAt: time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, restored))

	prod = getProduct(t, readStore, "prod-123")
	assert.Equal(t, 2, prod.Stock)
	assert.Equal(t, readmodel.ProductStatusActive, prod.Status)

	data, ok, err := readStore.Get(readmodel.CollectionInventory, "prod-123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, data.(*readmodel.InventoryReadModel).Stock)
}

func TestProjector_StockReserved_ClampsAtZero(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	value := makeEvent("prod-123", inventory.AggregateType, inventory.EventStockReserved, inventory.StockReserved{
		ProductID: "prod-123", OrderID: "order-1", Quantity: 4, ReservedAt: time.Now(),
	})

	require.NoError(t, projector.HandleEvent(ctx, nil, value))

	data, ok, err := readStore.Get(readmodel.CollectionInventory, "prod-123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, data.(*readmodel.InventoryReadModel).Stock)
}

// ============================================
// Order Event Tests
// ============================================

func placedEvent(orderID string, placedAt time.Time) []byte {
	return makeEvent(orderID, order.AggregateType, order.EventOrderPlaced, order.OrderPlaced{
		OrderID: orderID,
		UserID:  "user-1",
		Items: []order.Item{
			{ProductID: "prod-1", Name: "Widget", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		},
		ShippingAddress: order.ShippingAddress{Street: "1 Main St", City: "Springfield", ZipCode: "12345", Country: "United States"},
		PaymentMethod:   order.MethodStripe,
		ItemsPrice:      decimal.RequireFromString("20.00"),
		TaxPrice:        decimal.RequireFromString("1.70"),
		ShippingPrice:   decimal.RequireFromString("5.99"),
		TotalPrice:      decimal.RequireFromString("27.69"),
		PlacedAt:        placedAt,
	})
}

func TestProjector_OrderLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, projector.HandleEvent(ctx, nil, placedEvent("3f2b8c1d-9a6e-4f70-b214-8d5e12ab34cd", placedAt)))

	o := getOrder(t, readStore, "3f2b8c1d-9a6e-4f70-b214-8d5e12ab34cd")
	assert.Equal(t, string(order.StatusPending), o.Status)
	assert.Equal(t, "#12AB34CD", o.OrderNumber)
	assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("27.69")))
	assert.False(t, o.IsPaid)

	paidAt := placedAt.Add(time.Minute)
	paid := makeEvent(o.ID, order.AggregateType, order.EventOrderPaid, order.OrderPaid{
		OrderID: o.ID,
		Result:  order.PaymentResult{ID: "pi_123", Status: "succeeded", UpdateTime: paidAt, PayerEmail: "buyer@example.com"},
		PaidAt:  paidAt,
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, paid))

	o = getOrder(t, readStore, o.ID)
	assert.True(t, o.IsPaid)
	assert.Equal(t, string(order.StatusProcessing), o.Status)
	require.NotNil(t, o.PaymentResult)
	assert.Equal(t, "pi_123", o.PaymentResult.ID)
	require.NotNil(t, o.PaidAt)
	assert.True(t, o.PaidAt.Equal(paidAt))

	shippedAt := paidAt.Add(time.Hour)
	shipped := makeEvent(o.ID, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID:         o.ID,
		Status:          order.StatusShipped,
		TrackingNumber:  "1Z999AA10123456784",
		ShippingCarrier: order.CarrierUPS,
		UpdatedAt:       shippedAt,
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, shipped))

	o = getOrder(t, readStore, o.ID)
	assert.Equal(t, string(order.StatusShipped), o.Status)
	assert.Equal(t, "1Z999AA10123456784", o.TrackingNumber)
	assert.Equal(t, string(order.CarrierUPS), o.Carrier)
	assert.False(t, o.IsDelivered)

	deliveredAt := shippedAt.Add(48 * time.Hour)
	delivered := makeEvent(o.ID, order.AggregateType, order.EventOrderStatusUpdated, order.OrderStatusUpdated{
		OrderID:   o.ID,
		Status:    order.StatusDelivered,
		UpdatedAt: deliveredAt,
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, delivered))

	o = getOrder(t, readStore, o.ID)
	assert.Equal(t, string(order.StatusDelivered), o.Status)
	assert.True(t, o.IsDelivered)
	require.NotNil(t, o.DeliveredAt)
	assert.True(t, o.DeliveredAt.Equal(deliveredAt))
	// Tracking details from the earlier update stay on the document
	assert.Equal(t, "1Z999AA10123456784", o.TrackingNumber)
}

func TestProjector_HandleOrderPaid_SecondPaidEventDoesNotOverwrite(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, projector.HandleEvent(ctx, nil, placedEvent("order-1", placedAt)))

	first := makeEvent("order-1", order.AggregateType, order.EventOrderPaid, order.OrderPaid{
		OrderID: "order-1",
		Result:  order.PaymentResult{ID: "pi_first", Status: "succeeded"},
		PaidAt:  placedAt.Add(time.Minute),
	})
	second := makeEvent("order-1", order.AggregateType, order.EventOrderPaid, order.OrderPaid{
		OrderID: "order-1",
		Result:  order.PaymentResult{ID: "pi_second", Status: "succeeded"},
		PaidAt:  placedAt.Add(2 * time.Minute),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, first))
	require.NoError(t, projector.HandleEvent(ctx, nil, second))

	o := getOrder(t, readStore, "order-1")
	require.NotNil(t, o.PaymentResult)
	assert.Equal(t, "pi_first", o.PaymentResult.ID)
}

func TestProjector_HandleOrderCancelled(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, projector.HandleEvent(ctx, nil, placedEvent("order-1", placedAt)))

	cancelledAt := placedAt.Add(time.Hour)
	value := makeEvent("order-1", order.AggregateType, order.EventOrderCancelled, order.OrderCancelled{
		OrderID:     "order-1",
		Reason:      "changed my mind",
		CancelledAt: cancelledAt,
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, value))

	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, string(order.StatusCancelled), o.Status)
	assert.Equal(t, "changed my mind", o.CancelReason)
	require.NotNil(t, o.CancelledAt)
	assert.True(t, o.CancelledAt.Equal(cancelledAt))
}

func TestProjector_HandleOrderRefunded(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, projector.HandleEvent(ctx, nil, placedEvent("order-1", placedAt)))

	value := makeEvent("order-1", order.AggregateType, order.EventOrderRefunded, order.OrderRefunded{
		OrderID:    "order-1",
		Amount:     decimal.RequireFromString("27.69"),
		Reason:     "damaged in transit",
		RefundedAt: placedAt.Add(72 * time.Hour),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, value))

	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, string(order.StatusRefunded), o.Status)
	assert.True(t, o.RefundAmount.Equal(decimal.RequireFromString("27.69")))
	require.NotNil(t, o.RefundedAt)
}

// ============================================
// User Event Tests
// ============================================

func TestProjector_HandleUserRegistered(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	value := makeEvent("user-1", user.AggregateType, user.EventUserRegistered, user.UserRegistered{
		UserID:       "user-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$fakehash",
		Name:         "Alice",
		Role:         "customer",
		CreatedAt:    time.Now(),
	})

	require.NoError(t, projector.HandleEvent(ctx, nil, value))

	u := getUser(t, readStore, "user-1")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "customer", u.Role)
	assert.True(t, u.IsActive)
}

func TestProjector_HandleUserDeactivatedAndActivated(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	registered := makeEvent("user-1", user.AggregateType, user.EventUserRegistered, user.UserRegistered{
		UserID: "user-1", Email: "alice@example.com", Name: "Alice", Role: "customer", CreatedAt: time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, registered))

	deactivated := makeEvent("user-1", user.AggregateType, user.EventUserDeactivated, user.UserDeactivated{
		UserID: "user-1", DeactivatedAt: time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, deactivated))
	assert.False(t, getUser(t, readStore, "user-1").IsActive)

	activated := makeEvent("user-1", user.AggregateType, user.EventUserActivated, user.UserActivated{
		UserID: "user-1", ActivatedAt: time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, activated))
	assert.True(t, getUser(t, readStore, "user-1").IsActive)
}

func TestProjector_HandleUserLoggedOut_RemovesSession(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, readStore.Set(readmodel.CollectionSessions, "sess-1", &readmodel.SessionReadModel{
		ID:     "sess-1",
		UserID: "user-1",
	}))

	value := makeEvent("user-1", user.AggregateType, user.EventUserLoggedOut, user.UserLoggedOut{
		UserID:    "user-1",
		SessionID: "sess-1",
		LoggedAt:  time.Now(),
	})
	require.NoError(t, projector.HandleEvent(ctx, nil, value))

	_, ok, err := readStore.Get(readmodel.CollectionSessions, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

// ============================================
// Dispatch and Replay
// ============================================

func TestProjector_UnknownEventIgnored(t *testing.T) {
	projector, _ := newTestProjector()
	ctx := context.Background()

	value := makeEvent("agg-1", "UnknownAggregate", "SomethingHappened", map[string]string{"k": "v"})

	assert.NoError(t, projector.HandleEvent(ctx, nil, value))
}

func TestProjector_HandleEvent_InvalidJSON(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, []byte("not json"))

	assert.Error(t, err)
}

func TestProjector_Replay_RebuildsReadModels(t *testing.T) {
	projector, readStore := newTestProjector()
	placedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	toStored := func(raw []byte) store.Event {
		var e store.Event
		require.NoError(t, json.Unmarshal(raw, &e))
		return e
	}

	events := []store.Event{
		toStored(makeEvent("prod-1", product.AggregateType, product.EventProductCreated, product.ProductCreated{
			ProductID: "prod-1", Name: "Widget", Price: decimal.RequireFromString("10.00"), CreatedAt: placedAt,
		})),
		toStored(makeEvent("prod-1", inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{
			ProductID: "prod-1", Quantity: 10, AddedAt: placedAt,
		})),
		toStored(makeEvent("prod-1", inventory.AggregateType, inventory.EventStockReserved, inventory.StockReserved{
			ProductID: "prod-1", OrderID: "order-1", Quantity: 2, ReservedAt: placedAt,
		})),
		toStored(placedEvent("order-1", placedAt)),
	}

	require.NoError(t, projector.Replay(events))

	prod := getProduct(t, readStore, "prod-1")
	assert.Equal(t, 8, prod.Stock)
	assert.Equal(t, readmodel.ProductStatusActive, prod.Status)

	o := getOrder(t, readStore, "order-1")
	assert.Equal(t, string(order.StatusPending), o.Status)
}
