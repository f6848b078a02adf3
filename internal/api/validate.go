package api

import (
	"fmt"
	"unicode/utf8"

	"github.com/example/storefront/internal/command"
)

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const (
	maxNotesLen  = 500
	maxReasonLen = 200
)

// validatePlaceOrder checks the create-order request shape before any
// command runs, collecting every failure rather than stopping at the
// first.
func validatePlaceOrder(cmd command.PlaceOrder) []FieldError {
	var fieldErrors []FieldError

	if len(cmd.Lines) == 0 {
		fieldErrors = append(fieldErrors, FieldError{Field: "items", Message: "order must contain at least one item"})
	}
	for i, line := range cmd.Lines {
		if line.ProductID == "" {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "product id is required",
			})
		}
		if line.Quantity < 1 {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be at least 1",
			})
		}
	}

	addr := cmd.ShippingAddress
	if addr.Street == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "shipping_address.street", Message: "street is required"})
	}
	if addr.City == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "shipping_address.city", Message: "city is required"})
	}
	if addr.State == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "shipping_address.state", Message: "state is required"})
	}
	if addr.ZipCode == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "shipping_address.zip_code", Message: "zip code is required"})
	}

	if !cmd.PaymentMethod.Valid() {
		fieldErrors = append(fieldErrors, FieldError{Field: "payment_method", Message: "invalid payment method"})
	}

	if utf8.RuneCountInString(cmd.Notes) > maxNotesLen {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   "notes",
			Message: fmt.Sprintf("notes cannot exceed %d characters", maxNotesLen),
		})
	}

	return fieldErrors
}

// validateStatusUpdate checks the operator status-change request.
func validateStatusUpdate(cmd command.UpdateOrderStatus) []FieldError {
	var fieldErrors []FieldError

	if !cmd.Status.Valid() {
		fieldErrors = append(fieldErrors, FieldError{Field: "status", Message: "invalid order status"})
	}
	if cmd.ShippingCarrier != "" && !cmd.ShippingCarrier.Valid() {
		fieldErrors = append(fieldErrors, FieldError{Field: "shipping_carrier", Message: "invalid shipping carrier"})
	}
	if utf8.RuneCountInString(cmd.Notes) > maxNotesLen {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   "notes",
			Message: fmt.Sprintf("notes cannot exceed %d characters", maxNotesLen),
		})
	}

	return fieldErrors
}

// validateCancelOrder checks the cancellation request.
func validateCancelOrder(cmd command.CancelOrder) []FieldError {
	var fieldErrors []FieldError

	if utf8.RuneCountInString(cmd.Reason) > maxReasonLen {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   "reason",
			Message: fmt.Sprintf("cancellation reason cannot exceed %d characters", maxReasonLen),
		})
	}

	return fieldErrors
}

// validateRefundOrder checks the refund request. A reason is always
// required.
func validateRefundOrder(cmd command.RefundOrder) []FieldError {
	var fieldErrors []FieldError

	if cmd.Reason == "" {
		fieldErrors = append(fieldErrors, FieldError{Field: "reason", Message: "refund reason is required"})
	} else if utf8.RuneCountInString(cmd.Reason) > maxReasonLen {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   "reason",
			Message: fmt.Sprintf("refund reason cannot exceed %d characters", maxReasonLen),
		})
	}

	return fieldErrors
}
