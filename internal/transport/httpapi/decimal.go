package httpapi

import (
	"errors"

	"github.com/shopspring/decimal"
)

// parseDecimal parses a wire decimal string. MARKET orders ignore price,
// so an empty/missing price string is accepted and treated as zero when
// allowEmpty is set; the core itself never inspects price for
// MarketOrder submissions.
func parseDecimal(s string, allowEmpty bool) (decimal.Decimal, error) {
	if s == "" {
		if allowEmpty {
			return decimal.Zero, nil
		}
		return decimal.Decimal{}, errors.New("empty decimal value")
	}
	return decimal.NewFromString(s)
}
