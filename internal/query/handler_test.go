package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryHandler() (*Handler, *store.ReadStore) {
	readStore := store.NewReadStore()
	return NewHandler(readStore), readStore
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedOrder(t *testing.T, rs *store.ReadStore, o *readmodel.OrderReadModel) {
	t.Helper()
	require.NoError(t, rs.Set(readmodel.CollectionOrders, o.ID, o))
}

// ============================================
// Product Queries
// ============================================

func TestHandler_GetProduct(t *testing.T) {
	handler, rs := newTestQueryHandler()
	require.NoError(t, rs.Set(readmodel.CollectionProducts, "prod-1", &readmodel.ProductReadModel{
		ID: "prod-1", Name: "Widget", Price: d("19.99"), Stock: 5, Status: readmodel.ProductStatusActive,
	}))

	p, err := handler.GetProduct("prod-1")

	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 5, p.Stock)
}

func TestHandler_GetProduct_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler()

	_, err := handler.GetProduct("ghost")

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestHandler_ListProducts_SortedByName(t *testing.T) {
	handler, rs := newTestQueryHandler()
	for _, name := range []string{"Zebra", "Apple", "Mango"} {
		require.NoError(t, rs.Set(readmodel.CollectionProducts, name, &readmodel.ProductReadModel{
			ID: name, Name: name, Price: d("1.00"),
		}))
	}

	products, err := handler.ListProducts()

	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Apple", products[0].Name)
	assert.Equal(t, "Mango", products[1].Name)
	assert.Equal(t, "Zebra", products[2].Name)
}

// ============================================
// Order Queries
// ============================================

func TestHandler_GetOrder_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler()

	_, err := handler.GetOrder("ghost")

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestHandler_ListOrdersByUser_Pagination(t *testing.T) {
	handler, rs := newTestQueryHandler()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedOrder(t, rs, &readmodel.OrderReadModel{
			ID:        fmt.Sprintf("order-%02d", i),
			UserID:    "user-1",
			Status:    string(order.StatusPending),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	// Another user's order must not leak in
	seedOrder(t, rs, &readmodel.OrderReadModel{
		ID: "order-other", UserID: "user-2", CreatedAt: base,
	})

	page1, total, err := handler.ListOrdersByUser("user-1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page1, 10)
	// Newest first
	assert.Equal(t, "order-24", page1[0].ID)
	assert.Equal(t, "order-15", page1[9].ID)

	page3, total, err := handler.ListOrdersByUser("user-1", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page3, 5)
	assert.Equal(t, "order-00", page3[4].ID)
}

func TestHandler_ListOrdersByUser_PageBeyondEnd(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedOrder(t, rs, &readmodel.OrderReadModel{ID: "order-1", UserID: "user-1"})

	orders, total, err := handler.ListOrdersByUser("user-1", 5, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, orders)
}

func TestHandler_ListOrdersByUser_DefaultsPageAndLimit(t *testing.T) {
	handler, rs := newTestQueryHandler()
	for i := 0; i < 12; i++ {
		seedOrder(t, rs, &readmodel.OrderReadModel{
			ID:     fmt.Sprintf("order-%02d", i),
			UserID: "user-1",
		})
	}

	orders, total, err := handler.ListOrdersByUser("user-1", 0, 0)

	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, orders, 10)
}

func TestHandler_GetOrderByTrackingNumber(t *testing.T) {
	handler, rs := newTestQueryHandler()
	seedOrder(t, rs, &readmodel.OrderReadModel{
		ID:             "order-1",
		UserID:         "user-1",
		Status:         string(order.StatusShipped),
		TrackingNumber: "1Z999AA10123456784",
	})

	o, err := handler.GetOrderByTrackingNumber("1Z999AA10123456784")

	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
}

func TestHandler_GetOrderByTrackingNumber_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler()

	_, err := handler.GetOrderByTrackingNumber("TRACK-NONE")

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

// ============================================
// User Queries
// ============================================

func TestHandler_GetUserByEmail(t *testing.T) {
	handler, rs := newTestQueryHandler()
	require.NoError(t, rs.Set(readmodel.CollectionUsers, "user-1", &readmodel.UserReadModel{
		ID: "user-1", Email: "alice@example.com", Name: "Alice", Role: "customer", IsActive: true,
	}))

	u, err := handler.GetUserByEmail("alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
}

func TestHandler_GetUserByEmail_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler()

	_, err := handler.GetUserByEmail("nobody@example.com")

	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

// ============================================
// Stats
// ============================================

func TestHandler_GetOrderStats(t *testing.T) {
	handler, rs := newTestQueryHandler()

	seedOrder(t, rs, &readmodel.OrderReadModel{
		ID: "order-1", UserID: "u1", Status: string(order.StatusProcessing),
		IsPaid: true, TotalPrice: d("27.69"),
	})
	seedOrder(t, rs, &readmodel.OrderReadModel{
		ID: "order-2", UserID: "u1", Status: string(order.StatusDelivered),
		IsPaid: true, TotalPrice: d("54.25"),
	})
	seedOrder(t, rs, &readmodel.OrderReadModel{
		ID: "order-3", UserID: "u2", Status: string(order.StatusPending),
		IsPaid: false, TotalPrice: d("10.00"),
	})
	// Refunded orders do not count toward revenue even though they were paid
	seedOrder(t, rs, &readmodel.OrderReadModel{
		ID: "order-4", UserID: "u2", Status: string(order.StatusRefunded),
		IsPaid: true, TotalPrice: d("99.99"),
	})

	stats, err := handler.GetOrderStats()

	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalOrders)
	assert.Equal(t, 1, stats.CountsByStatus[string(order.StatusProcessing)])
	assert.Equal(t, 1, stats.CountsByStatus[string(order.StatusDelivered)])
	assert.Equal(t, 1, stats.CountsByStatus[string(order.StatusPending)])
	assert.Equal(t, 1, stats.CountsByStatus[string(order.StatusRefunded)])
	assert.True(t, stats.TotalRevenue.Equal(d("81.94")), "revenue: %s", stats.TotalRevenue)
}

func TestHandler_GetOrderStats_Empty(t *testing.T) {
	handler, _ := newTestQueryHandler()

	stats, err := handler.GetOrderStats()

	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.IsZero())
}
