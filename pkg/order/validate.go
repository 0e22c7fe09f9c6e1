package order

import "github.com/shopspring/decimal"

// ValidateAmount checks a requested send amount against the active
// quote's bounds. It returns AmountSkipped when there is no quote or
// the amount is not numeric; editing is never blocked by the result,
// only order submission is.
func ValidateAmount(amount string, quote *Quote) AmountCheck {
	if quote == nil {
		return AmountSkipped
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return AmountSkipped
	}

	if value.LessThan(quote.MinAmount) {
		return AmountTooLow
	}
	if value.GreaterThan(quote.MaxAmount) {
		return AmountTooHigh
	}
	return AmountOK
}
