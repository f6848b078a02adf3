package query

import (
	"sort"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"github.com/shopspring/decimal"
)

// Handler serves queries from the read models
type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// GetProduct returns a product by ID
func (h *Handler) GetProduct(productID string) (*readmodel.ProductReadModel, error) {
	p, ok, err := h.readStore.Get(readmodel.CollectionProducts, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	model, ok := p.(*readmodel.ProductReadModel)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return model, nil
}

// ListProducts returns the catalog sorted by name
func (h *Handler) ListProducts() ([]*readmodel.ProductReadModel, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionProducts)
	if err != nil {
		return nil, err
	}

	products := make([]*readmodel.ProductReadModel, 0, len(items))
	for _, item := range items {
		if p, ok := item.(*readmodel.ProductReadModel); ok {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

// GetOrder returns an order by ID
func (h *Handler) GetOrder(orderID string) (*readmodel.OrderReadModel, error) {
	o, ok, err := h.readStore.Get(readmodel.CollectionOrders, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	model, ok := o.(*readmodel.OrderReadModel)
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return model, nil
}

// ListOrdersByUser returns one page of a user's orders, newest first,
// along with the total count for pagination.
func (h *Handler) ListOrdersByUser(userID string, page, limit int) ([]*readmodel.OrderReadModel, int, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionOrders)
	if err != nil {
		return nil, 0, err
	}

	var orders []*readmodel.OrderReadModel
	for _, item := range items {
		if o, ok := item.(*readmodel.OrderReadModel); ok && o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	total := len(orders)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= total {
		return []*readmodel.OrderReadModel{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return orders[start:end], total, nil
}

// GetOrderByTrackingNumber returns the order carrying the tracking
// number, for the public tracking endpoint.
func (h *Handler) GetOrderByTrackingNumber(trackingNumber string) (*readmodel.OrderReadModel, error) {
	o, ok, err := h.readStore.FindOne(readmodel.CollectionOrders, "tracking_number", trackingNumber)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	model, ok := o.(*readmodel.OrderReadModel)
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return model, nil
}

// GetUser returns a user by ID
func (h *Handler) GetUser(userID string) (*readmodel.UserReadModel, error) {
	u, ok, err := h.readStore.Get(readmodel.CollectionUsers, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, user.ErrUserNotFound
	}
	model, ok := u.(*readmodel.UserReadModel)
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return model, nil
}

// GetUserByEmail returns a user by email, for the login path
func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, error) {
	u, ok, err := h.readStore.FindOne(readmodel.CollectionUsers, "email", email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, user.ErrUserNotFound
	}
	model, ok := u.(*readmodel.UserReadModel)
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return model, nil
}

// GetInventory returns the stock view for a product
func (h *Handler) GetInventory(productID string) (*readmodel.InventoryReadModel, error) {
	inv, ok, err := h.readStore.Get(readmodel.CollectionInventory, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	model, ok := inv.(*readmodel.InventoryReadModel)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return model, nil
}

// OrderStats summarizes orders for the admin dashboard
type OrderStats struct {
	TotalOrders    int             `json:"total_orders"`
	CountsByStatus map[string]int  `json:"counts_by_status"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

// GetOrderStats computes per-status counts and revenue from paid orders
func (h *Handler) GetOrderStats() (*OrderStats, error) {
	items, err := h.readStore.GetAll(readmodel.CollectionOrders)
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{
		CountsByStatus: make(map[string]int),
		TotalRevenue:   decimal.Zero,
	}
	for _, item := range items {
		o, ok := item.(*readmodel.OrderReadModel)
		if !ok {
			continue
		}
		stats.TotalOrders++
		stats.CountsByStatus[o.Status]++
		if o.IsPaid && o.Status != string(order.StatusRefunded) {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalPrice)
		}
	}
	return stats, nil
}
