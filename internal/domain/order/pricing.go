package order

import (
	"os"

	"github.com/shopspring/decimal"
)

// PricingConfig carries the externally configured pricing knobs. The values
// are business configuration, not derived by the order core.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricing mirrors the production defaults: 8.5% tax, free shipping
// at $50, otherwise a $5.99 flat fee.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		TaxRate:               decimal.RequireFromString("0.085"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.RequireFromString("5.99"),
	}
}

// PricingFromEnv reads TAX_RATE, SHIPPING_FREE_THRESHOLD and SHIPPING_COST,
// falling back to the defaults for unset or malformed values.
func PricingFromEnv() PricingConfig {
	cfg := DefaultPricing()
	if v, err := decimal.NewFromString(os.Getenv("TAX_RATE")); err == nil {
		cfg.TaxRate = v
	}
	if v, err := decimal.NewFromString(os.Getenv("SHIPPING_FREE_THRESHOLD")); err == nil {
		cfg.FreeShippingThreshold = v
	}
	if v, err := decimal.NewFromString(os.Getenv("SHIPPING_COST")); err == nil {
		cfg.ShippingFee = v
	}
	return cfg
}

type Totals struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// ComputeTotals derives all monetary fields from the order lines. It is a
// pure function: recomputing it over a persisted order's items must
// reproduce the stored totals exactly.
func ComputeTotals(items []Item, cfg PricingConfig) Totals {
	itemsPrice := decimal.Zero
	for _, item := range items {
		itemsPrice = itemsPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// Round half up on the hundredths digit.
	taxPrice := itemsPrice.Mul(cfg.TaxRate).Round(2)

	shippingPrice := cfg.ShippingFee
	if itemsPrice.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shippingPrice = decimal.Zero
	}

	return Totals{
		ItemsPrice:    itemsPrice,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
		TotalPrice:    itemsPrice.Add(taxPrice).Add(shippingPrice),
	}
}
