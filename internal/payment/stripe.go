package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultStripeBaseURL = "https://api.stripe.com/v1"

// StripeGateway talks to the Stripe REST API with form-encoded requests.
type StripeGateway struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewStripeGateway(apiKey string) *StripeGateway {
	return &StripeGateway{
		apiKey:  apiKey,
		baseURL: defaultStripeBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewStripeGatewayWithBaseURL points the client at a non-default API
// host (test servers).
func NewStripeGatewayWithBaseURL(apiKey, baseURL string) *StripeGateway {
	g := NewStripeGateway(apiKey)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

// CreateIntent creates a payment intent for the given amount in minor units.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	var intent Intent
	if err := g.do(ctx, http.MethodPost, "/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// RetrieveIntent fetches the current state of a payment intent.
func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	var intent Intent
	if err := g.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(intentID), nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateRefund refunds part or all of a charged payment intent.
func (g *StripeGateway) CreateRefund(ctx context.Context, intentID string, amountCents int64) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}

	var refund Refund
	if err := g.do(ctx, http.MethodPost, "/refunds", form, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentProcessor, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrPaymentProcessor, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr stripeError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s (%s)", ErrPaymentProcessor, apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("%w: status %d", ErrPaymentProcessor, resp.StatusCode)
	}

	return json.Unmarshal(respBody, out)
}
