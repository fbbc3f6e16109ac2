package entity

import (
	"context"

	"lotkeeper/internal/core/apperror"
)

// CurrencyAware is a trait for entities that carry a currency dimension.
// Used for composition in cost rows, price rows and document aggregates.
type CurrencyAware struct {
	// Currency is the ISO 4217 code for monetary fields of this entity
	Currency string `db:"currency" json:"currency"`
}

// ValidateCurrency ensures a currency is set.
func (c *CurrencyAware) ValidateCurrency(ctx context.Context) error {
	if c.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	if len(c.Currency) != 3 {
		return apperror.NewValidation("currency must be a 3-letter ISO code").
			WithDetail("field", "currency").
			WithDetail("value", c.Currency)
	}
	return nil
}

// GetCurrency returns the currency code.
func (c *CurrencyAware) GetCurrency() string {
	return c.Currency
}
