package product

import (
	"context"
	"testing"

	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestService_Create_Success(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, Fields{
		Name:        "Widget",
		Description: "A fine widget",
		Price:       d("19.99"),
		SKU:         "WID-001",
		Brand:       "Acme",
		Category:    "Tools",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Widget", p.Name)
	assert.True(t, p.Price.Equal(d("19.99")))

	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestService_Create_EmptyName(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, Fields{Price: d("10.00")})

	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Nil(t, p)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Create_NegativePrice(t *testing.T) {
	service, _ := newTestProductService()
	ctx := context.Background()

	_, err := service.Create(ctx, Fields{Name: "Widget", Price: d("-1.00")})

	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestService_Create_NegativeSalePrice(t *testing.T) {
	service, _ := newTestProductService()
	ctx := context.Background()

	_, err := service.Create(ctx, Fields{Name: "Widget", Price: d("10.00"), SalePrice: dp("-0.01")})

	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestService_Update_Success(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, Fields{Name: "Widget", Price: d("19.99")})
	require.NoError(t, err)
	eventStore.AppendCalls = nil

	err = service.Update(ctx, p.ID, Fields{Name: "Widget v2", Price: d("24.99")})

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductUpdated, eventStore.AppendCalls[0].EventType)
}

func TestService_Update_NotFound(t *testing.T) {
	service, _ := newTestProductService()
	ctx := context.Background()

	err := service.Update(ctx, "non-existent", Fields{Name: "Widget", Price: d("10.00")})

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Delete_Success(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, Fields{Name: "Widget", Price: d("19.99")})
	require.NoError(t, err)
	eventStore.AppendCalls = nil

	err = service.Delete(ctx, p.ID)

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductDeleted, eventStore.AppendCalls[0].EventType)
}

func TestService_Delete_NotFound(t *testing.T) {
	service, _ := newTestProductService()

	err := service.Delete(context.Background(), "non-existent")

	assert.ErrorIs(t, err, ErrProductNotFound)
}

// ============================================
// Computed Field Tests
// ============================================

func TestProduct_EffectivePrice(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		salePrice *decimal.Decimal
		expected  string
	}{
		{name: "no sale price", price: "20.00", salePrice: nil, expected: "20.00"},
		{name: "sale price lower", price: "20.00", salePrice: dp("15.00"), expected: "15.00"},
		{name: "sale price equal is ignored", price: "20.00", salePrice: dp("20.00"), expected: "20.00"},
		{name: "sale price higher is ignored", price: "20.00", salePrice: dp("25.00"), expected: "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Price: d(tt.price), SalePrice: tt.salePrice}
			assert.True(t, p.EffectivePrice().Equal(d(tt.expected)), "got %s", p.EffectivePrice())
		})
	}
}

func TestProduct_DiscountPercentage(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		salePrice *decimal.Decimal
		expected  int
	}{
		{name: "no sale price", price: "20.00", salePrice: nil, expected: 0},
		{name: "quarter off", price: "20.00", salePrice: dp("15.00"), expected: 25},
		{name: "rounds to nearest", price: "29.99", salePrice: dp("19.99"), expected: 33},
		{name: "sale above price", price: "20.00", salePrice: dp("25.00"), expected: 0},
		{name: "zero base price", price: "0", salePrice: dp("0"), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{Price: d(tt.price), SalePrice: tt.salePrice}
			assert.Equal(t, tt.expected, p.DiscountPercentage())
		})
	}
}
