// Package payment integrates with the external card processor. The
// processor is the source of truth for charge state; local order state
// only changes after the processor confirms.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrPaymentProcessor wraps any failure reported by the processor.
var ErrPaymentProcessor = errors.New("payment processor error")

// Intent statuses the service cares about.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusCanceled  = "canceled"
)

// Intent is a processor-side payment intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ReceiptEmail string `json:"receipt_email"`
}

// Refund is a processor-side refund.
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// Gateway is the processor client surface the command side depends on.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	CreateRefund(ctx context.Context, intentID string, amountCents int64) (*Refund, error)
}

// AmountToCents converts a decimal money amount to the integer minor
// units the processor API expects.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
