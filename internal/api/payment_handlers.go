package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/query"
)

// maxWebhookBody bounds the webhook payload read.
const maxWebhookBody = 1 << 20

// PaymentHandlers serves the payment endpoints and the processor webhook.
type PaymentHandlers struct {
	cmdHandler    *command.Handler
	queryHandler  *query.Handler
	webhookSecret string
}

func NewPaymentHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, webhookSecret string) *PaymentHandlers {
	return &PaymentHandlers{
		cmdHandler:    cmdHandler,
		queryHandler:  queryHandler,
		webhookSecret: webhookSecret,
	}
}

// CreatePaymentIntent creates a processor intent for the caller's order.
func (h *PaymentHandlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "order_id is required")
		return
	}

	if !h.authorizeOrderAccess(w, r, req.OrderID) {
		return
	}

	intent, err := h.cmdHandler.CreatePaymentIntent(r.Context(), req.OrderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
	})
}

// ConfirmPayment verifies the intent with the processor and marks the
// order paid.
func (h *PaymentHandlers) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var cmd command.ConfirmPayment
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.OrderID == "" || cmd.PaymentIntentID == "" {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "order_id and payment_intent_id are required")
		return
	}

	if !h.authorizeOrderAccess(w, r, cmd.OrderID) {
		return
	}

	if err := h.cmdHandler.ConfirmPayment(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "payment confirmed"})
}

// Webhook receives signed processor notifications. Signature failures
// are rejected before the body is trusted; handler errors after a valid
// signature still return 200 so the processor does not retry forever on
// a bug.
func (h *PaymentHandlers) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "unreadable payload")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if err := payment.VerifySignature(payload, signature, h.webhookSecret, payment.DefaultWebhookTolerance, time.Now()); err != nil {
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "invalid signature")
		return
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, "invalid payload")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		orderID := event.Data.Object.Metadata.OrderID
		if orderID == "" {
			log.Printf("[Payment] Webhook %s has no order_id metadata", event.ID)
			break
		}
		result := order.PaymentResult{
			ID:         event.Data.Object.ID,
			Status:     event.Data.Object.Status,
			UpdateTime: time.Now(),
			PayerEmail: event.Data.Object.ReceiptEmail,
		}
		if err := h.cmdHandler.RecordPaymentSucceeded(r.Context(), orderID, result); err != nil {
			log.Printf("[Payment] Failed to record webhook payment for order %s: %v", orderID, err)
		}
	default:
		log.Printf("[Payment] Ignoring webhook event type %s", event.Type)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *PaymentHandlers) authorizeOrderAccess(w http.ResponseWriter, r *http.Request, orderID string) bool {
	o, err := h.queryHandler.GetOrder(orderID)
	if err != nil {
		respondDomainError(w, err)
		return false
	}
	claims, _ := middleware.GetUserFromContext(r.Context())
	if claims == nil || (o.UserID != claims.UserID && claims.Role != user.RoleAdmin) {
		respondErrorCode(w, http.StatusForbidden, CodeForbidden, "not your order")
		return false
	}
	return true
}
