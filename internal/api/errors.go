package api

import (
	"errors"
	"net/http"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/intent"
	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/user"
	"github.com/example/storefront/internal/payment"
)

// Stable error codes clients can branch on.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodePaymentProcessor  = "PAYMENT_PROCESSOR_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// respondDomainError translates a domain error into its API code and
// status. Anything unrecognized is an internal error with no detail
// leaked to the client.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, intent.ErrIntentNotFound):
		respondErrorCode(w, http.StatusNotFound, CodeNotFound, err.Error())

	case errors.Is(err, inventory.ErrInsufficientStock):
		respondErrorCode(w, http.StatusConflict, CodeInsufficientStock, err.Error())

	case errors.Is(err, order.ErrInvalidTransition):
		respondErrorCode(w, http.StatusConflict, CodeInvalidTransition, err.Error())

	case errors.Is(err, order.ErrInvalidAmount):
		respondErrorCode(w, http.StatusBadRequest, CodeInvalidAmount, err.Error())

	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidMethod),
		errors.Is(err, order.ErrInvalidCarrier),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidName),
		errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidName),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, command.ErrPaymentNotConfirmed):
		respondErrorCode(w, http.StatusBadRequest, CodeValidation, err.Error())

	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		respondErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, err.Error())

	case errors.Is(err, user.ErrUserDeactivated):
		respondErrorCode(w, http.StatusForbidden, CodeForbidden, err.Error())

	case errors.Is(err, payment.ErrPaymentProcessor):
		respondErrorCode(w, http.StatusBadGateway, CodePaymentProcessor, err.Error())

	default:
		respondErrorCode(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
