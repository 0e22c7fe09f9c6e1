package order

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	quote := &Quote{
		MinAmount: decimal.RequireFromString("10"),
		MaxAmount: decimal.RequireFromString("5000"),
	}

	tests := []struct {
		name   string
		amount string
		quote  *Quote
		want   AmountCheck
	}{
		{"within bounds", "11", quote, AmountOK},
		{"at minimum", "10", quote, AmountOK},
		{"at maximum", "5000", quote, AmountOK},
		{"below minimum", "9.999", quote, AmountTooLow},
		{"above maximum", "5000.01", quote, AmountTooHigh},
		{"no quote", "11", nil, AmountSkipped},
		{"non-numeric", "abc", quote, AmountSkipped},
		{"empty", "", quote, AmountSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAmount(tt.amount, tt.quote); got != tt.want {
				t.Errorf("ValidateAmount(%q) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}
