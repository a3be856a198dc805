package exchangerate

import (
	"context"
	"fmt"

	"sealpay/internal/application/payment/rate"
	vo "sealpay/internal/domain/intent/valueobjects"
)

// FixedRateOracle serves config-pinned rates for dev mode and tests.
type FixedRateOracle struct {
	rates map[vo.Currency]float64
}

// NewFixedRateOracle takes fiat-per-token rates keyed by currency code.
func NewFixedRateOracle(rates map[string]float64) *FixedRateOracle {
	parsed := make(map[vo.Currency]float64, len(rates))
	for code, r := range rates {
		if currency, err := vo.NewCurrency(code); err == nil {
			parsed[currency] = r
		}
	}
	return &FixedRateOracle{rates: parsed}
}

var _ rate.Oracle = (*FixedRateOracle)(nil)

func (s *FixedRateOracle) Convert(_ context.Context, fiatAmount vo.Money, currency vo.Currency) (string, error) {
	r, ok := s.rates[currency]
	if !ok {
		return "", fmt.Errorf("no fixed rate configured for %s", currency)
	}
	return tokenAmountRaw(fiatAmount.AmountInCents(), r, currency.Decimals())
}
