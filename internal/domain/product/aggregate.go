package product

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Product"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidName     = errors.New("name is required")
)

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	SKU         string           `json:"sku,omitempty"`
	Image       string           `json:"image,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Category    string           `json:"category,omitempty"`
	IsDeleted   bool             `json:"is_deleted,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// EffectivePrice is the price a new order line snapshots: the sale price
// when one is set and actually lower, otherwise the base price. Computed,
// never persisted.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.LessThan(p.Price) {
		return *p.SalePrice
	}
	return p.Price
}

// DiscountPercentage derives the rounded percentage off the base price.
func (p *Product) DiscountPercentage() int {
	if p.SalePrice == nil || p.SalePrice.GreaterThanOrEqual(p.Price) || p.Price.IsZero() {
		return 0
	}
	off := p.Price.Sub(*p.SalePrice).Div(p.Price).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

type Fields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	SKU         string
	Image       string
	Brand       string
	Category    string
}

func (f Fields) validate() error {
	if f.Name == "" {
		return ErrInvalidName
	}
	if f.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if f.SalePrice != nil && f.SalePrice.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) Create(ctx context.Context, fields Fields) (*Product, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}

	productID := uuid.New().String()
	now := time.Now()

	event := ProductCreated{
		ProductID:   productID,
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		SalePrice:   fields.SalePrice,
		SKU:         fields.SKU,
		Image:       fields.Image,
		Brand:       fields.Brand,
		Category:    fields.Category,
		CreatedAt:   now,
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event)
	if err != nil {
		return nil, err
	}

	return &Product{
		ID:          productID,
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		SalePrice:   fields.SalePrice,
		SKU:         fields.SKU,
		Image:       fields.Image,
		Brand:       fields.Brand,
		Category:    fields.Category,
		CreatedAt:   now,
	}, nil
}

func (s *Service) Update(ctx context.Context, productID string, fields Fields) error {
	if err := fields.validate(); err != nil {
		return err
	}

	events := s.eventStore.GetEvents(productID)
	if len(events) == 0 {
		return ErrProductNotFound
	}

	event := ProductUpdated{
		ProductID:   productID,
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		SalePrice:   fields.SalePrice,
		Image:       fields.Image,
		Brand:       fields.Brand,
		Category:    fields.Category,
		UpdatedAt:   time.Now(),
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductUpdated, event)
	return err
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	events := s.eventStore.GetEvents(productID)
	if len(events) == 0 {
		return ErrProductNotFound
	}

	event := ProductDeleted{
		ProductID: productID,
		DeletedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductDeleted, event)
	return err
}
