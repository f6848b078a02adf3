package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

func extractPathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(param, "/"); idx >= 0 {
		param = param[:idx]
	}
	return param
}

// Product handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.queryHandler.ListProducts()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	p, err := h.queryHandler.GetProduct(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	var cmd command.UpdateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	cmd.ProductID = id

	if err := h.cmdHandler.UpdateProduct(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "product updated"})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	if err := h.cmdHandler.DeleteProduct(r.Context(), command.DeleteProduct{ProductID: id}); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *Handlers) AddStock(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}

	if err := h.cmdHandler.AddStock(r.Context(), command.AddStock{ProductID: id, Quantity: req.Quantity}); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "stock added"})
}

// Order handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	cmd.UserID = middleware.GetUserID(r.Context())

	if fieldErrors := validatePlaceOrder(cmd); len(fieldErrors) > 0 {
		respondValidationErrors(w, fieldErrors)
		return
	}

	o, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// GetMyOrders returns one page of the caller's orders.
func (h *Handlers) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, total, err := h.queryHandler.ListOrdersByUser(userID, page, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"total":  total,
		"page":   max(page, 1),
	})
}

// GetOrder returns one order. Customers may only read their own orders;
// admins may read any.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	o, err := h.queryHandler.GetOrder(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims == nil || (o.UserID != claims.UserID && claims.Role != user.RoleAdmin) {
		respondErrorCode(w, http.StatusForbidden, CodeForbidden, "not your order")
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	var cmd command.UpdateOrderStatus
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	cmd.OrderID = id

	if fieldErrors := validateStatusUpdate(cmd); len(fieldErrors) > 0 {
		respondValidationErrors(w, fieldErrors)
		return
	}

	if err := h.cmdHandler.UpdateOrderStatus(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}

// CancelOrder cancels the caller's order (or any order for an admin)
// and restores the stock it reserved.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if fieldErrors := validateCancelOrder(command.CancelOrder{Reason: req.Reason}); len(fieldErrors) > 0 {
		respondValidationErrors(w, fieldErrors)
		return
	}

	o, err := h.queryHandler.GetOrder(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims == nil || (o.UserID != claims.UserID && claims.Role != user.RoleAdmin) {
		respondErrorCode(w, http.StatusForbidden, CodeForbidden, "not your order")
		return
	}

	if err := h.cmdHandler.CancelOrder(r.Context(), command.CancelOrder{OrderID: id, Reason: req.Reason}); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

func (h *Handlers) RefundOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	var cmd command.RefundOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid request body")
		return
	}
	cmd.OrderID = id

	if fieldErrors := validateRefundOrder(cmd); len(fieldErrors) > 0 {
		respondValidationErrors(w, fieldErrors)
		return
	}

	if err := h.cmdHandler.RefundOrder(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "order refunded"})
}

// TrackOrder is the public tracking endpoint: no auth, and only
// shipping-related fields are exposed.
func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	trackingNumber := extractPathParam(r.URL.Path, "/api/orders/track/")

	o, err := h.queryHandler.GetOrderByTrackingNumber(trackingNumber)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"order_number":       o.OrderNumber,
		"status":             o.Status,
		"tracking_number":    o.TrackingNumber,
		"carrier":            o.Carrier,
		"estimated_delivery": o.EstimatedDelivery,
		"is_delivered":       o.IsDelivered,
		"delivered_at":       o.DeliveredAt,
	})
}

func (h *Handlers) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queryHandler.GetOrderStats()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
