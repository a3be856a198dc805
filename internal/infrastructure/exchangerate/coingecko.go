// Package exchangerate implements the rate oracle behind intent pricing.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sealpay/internal/application/payment/rate"
	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/shared/biztime"
	"sealpay/internal/shared/logger"
)

const (
	coingeckoAPIURL = "https://api.coingecko.com/api/v3/simple/price"
	// Cache duration for exchange rates
	cacheDuration = 5 * time.Minute
	// Maximum cache age for fallback. If the cache is older than this we
	// refuse to use it even when the API fails, limiting exposure to stale
	// rates during price volatility.
	maxCacheAge = 15 * time.Minute
	// HTTP request timeout
	requestTimeout = 10 * time.Second
	// Maximum response body size for the rate API (64KB)
	maxRateResponseSize = 64 << 10
	// Maximum allowed rate change between fetches (10%)
	maxRateChangePercent = 0.10
)

// coingeckoIDs maps currencies to CoinGecko asset identifiers.
var coingeckoIDs = map[vo.Currency]string{
	vo.CurrencyMATIC: "matic-network",
	vo.CurrencyETH:   "ethereum",
	vo.CurrencyBTC:   "bitcoin",
	vo.CurrencyUSDC:  "usd-coin",
}

// plausibleRange is a coarse sanity band per currency. An API answer outside
// it is treated as corrupt, not as a market move.
var plausibleRange = map[vo.Currency][2]float64{
	vo.CurrencyMATIC: {0.01, 100},
	vo.CurrencyETH:   {50, 100000},
	vo.CurrencyBTC:   {1000, 10000000},
	vo.CurrencyUSDC:  {0.5, 2.0},
}

// CoinGeckoOracle converts fiat amounts into token amounts using CoinGecko
// spot prices, with a short cache and a bounded stale-cache fallback.
type CoinGeckoOracle struct {
	httpClient *http.Client
	fiatCode   string
	logger     logger.Interface

	mu     sync.RWMutex
	cached map[vo.Currency]cachedRate
}

type cachedRate struct {
	rate float64
	at   time.Time
}

func NewCoinGeckoOracle(fiatCode string, logger logger.Interface) *CoinGeckoOracle {
	if fiatCode == "" {
		fiatCode = "usd"
	}
	return &CoinGeckoOracle{
		httpClient: &http.Client{Timeout: requestTimeout},
		fiatCode:   strings.ToLower(fiatCode),
		logger:     logger,
		cached:     make(map[vo.Currency]cachedRate),
	}
}

var _ rate.Oracle = (*CoinGeckoOracle)(nil)

// Convert returns the token amount, in the currency's smallest on-chain
// unit, equivalent to the fiat amount at the current rate.
func (s *CoinGeckoOracle) Convert(ctx context.Context, fiatAmount vo.Money, currency vo.Currency) (string, error) {
	r, err := s.getRate(ctx, currency)
	if err != nil {
		return "", err
	}
	return tokenAmountRaw(fiatAmount.AmountInCents(), r, currency.Decimals())
}

// tokenAmountRaw computes fiatCents/100/rate scaled to 10^decimals, in
// big.Float to keep precision on 18-decimal chains.
func tokenAmountRaw(fiatCents int64, fiatPerToken float64, decimals int) (string, error) {
	if fiatPerToken <= 0 {
		return "", fmt.Errorf("invalid exchange rate: %f", fiatPerToken)
	}

	// 200-bit precision keeps the quotient exact well past 18 decimals; the
	// only inexactness left is the float64 representation of the rate.
	const prec = 200
	fiat := new(big.Float).SetPrec(prec).SetInt64(fiatCents)
	fiat.Quo(fiat, new(big.Float).SetPrec(prec).SetInt64(100))

	tokens := new(big.Float).SetPrec(prec).Quo(fiat, new(big.Float).SetPrec(prec).SetFloat64(fiatPerToken))

	scale := new(big.Float).SetPrec(prec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	raw := new(big.Float).SetPrec(prec).Mul(tokens, scale)

	// Round half up.
	raw.Add(raw, big.NewFloat(0.5))
	result, _ := raw.Int(nil)
	if result.Sign() <= 0 {
		return "", fmt.Errorf("converted amount rounds to zero")
	}
	return result.String(), nil
}

func (s *CoinGeckoOracle) getRate(ctx context.Context, currency vo.Currency) (float64, error) {
	now := biztime.NowUTC()

	s.mu.RLock()
	entry, hasCache := s.cached[currency]
	s.mu.RUnlock()

	if hasCache && now.Sub(entry.at) < cacheDuration {
		return entry.rate, nil
	}

	fetched, err := s.fetchRate(ctx, currency)
	if err != nil {
		// Fall back to the cache only while it is fresh enough.
		if hasCache && now.Sub(entry.at) < maxCacheAge {
			s.logger.Warnw("failed to fetch exchange rate, using cached value",
				"currency", currency.String(),
				"error", err,
				"cached_rate", entry.rate,
				"cache_age", now.Sub(entry.at),
			)
			return entry.rate, nil
		}
		return 0, fmt.Errorf("failed to get %s rate: %w", currency, err)
	}

	// Reject sudden jumps against the cached value; the cache is the more
	// trustworthy of the two while it lasts.
	if hasCache && entry.rate > 0 {
		change := math.Abs(fetched-entry.rate) / entry.rate
		if change > maxRateChangePercent {
			if now.Sub(entry.at) >= maxCacheAge {
				s.logger.Errorw("rate jump with expired cache, refusing rate",
					"currency", currency.String(),
					"new_rate", fetched,
					"cached_rate", entry.rate,
					"change_percent", change,
				)
				return 0, fmt.Errorf("rate change %.2f%% exceeds threshold and cache expired", change*100)
			}
			s.logger.Warnw("rate jump exceeds threshold, keeping cached value",
				"currency", currency.String(),
				"new_rate", fetched,
				"cached_rate", entry.rate,
				"change_percent", change,
			)
			return entry.rate, nil
		}
	}

	s.mu.Lock()
	s.cached[currency] = cachedRate{rate: fetched, at: now}
	s.mu.Unlock()

	return fetched, nil
}

func (s *CoinGeckoOracle) fetchRate(ctx context.Context, currency vo.Currency) (float64, error) {
	assetID, ok := coingeckoIDs[currency]
	if !ok {
		return 0, fmt.Errorf("no price feed for currency: %s", currency)
	}

	endpoint := fmt.Sprintf("%s?ids=%s&vs_currencies=%s",
		coingeckoAPIURL, url.QueryEscape(assetID), url.QueryEscape(s.fiatCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data map[string]map[string]float64
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRateResponseSize)).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	fetched := data[assetID][s.fiatCode]
	if fetched <= 0 {
		return 0, fmt.Errorf("invalid rate from API: %f", fetched)
	}

	if band, ok := plausibleRange[currency]; ok {
		if fetched < band[0] || fetched > band[1] {
			return 0, fmt.Errorf("rate %f outside plausible range [%f, %f]", fetched, band[0], band[1])
		}
	}

	return fetched, nil
}
