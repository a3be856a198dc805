package valueobjects

import (
	"fmt"
	"regexp"
	"strings"
)

// Currency represents a supported settlement currency. The set is closed;
// adding a network is a configuration change against the chain client
// registry, not a new code path.
type Currency string

const (
	CurrencyMATIC Currency = "MATIC"
	CurrencyETH   Currency = "ETH"
	CurrencyBTC   Currency = "BTC"
	CurrencyUSDC  Currency = "USDC"
)

// NewCurrency creates a Currency from string, normalizing case.
func NewCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(code))
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency: %s", code)
	}
	return c, nil
}

// All returns every supported currency.
func All() []Currency {
	return []Currency{CurrencyMATIC, CurrencyETH, CurrencyBTC, CurrencyUSDC}
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyMATIC, CurrencyETH, CurrencyBTC, CurrencyUSDC:
		return true
	default:
		return false
	}
}

func (c Currency) String() string {
	return string(c)
}

// IsEVM reports whether the currency settles on an EVM network.
func (c Currency) IsEVM() bool {
	switch c {
	case CurrencyMATIC, CurrencyETH, CurrencyUSDC:
		return true
	default:
		return false
	}
}

// IsToken reports whether the currency is an ERC-20 token rather than the
// network's native asset. Token value and destination are read from the
// transfer log, not from the transaction value.
func (c Currency) IsToken() bool {
	return c == CurrencyUSDC
}

// Decimals returns the number of decimal places of the currency's
// smallest on-chain unit.
func (c Currency) Decimals() int {
	switch c {
	case CurrencyMATIC, CurrencyETH:
		return 18
	case CurrencyBTC:
		return 8
	case CurrencyUSDC:
		return 6
	default:
		return 0
	}
}

// RequiredConfirmations returns the default number of block confirmations
// required before a payment on this network is considered final.
func (c Currency) RequiredConfirmations() int {
	switch c {
	case CurrencyMATIC:
		return 12
	case CurrencyETH, CurrencyUSDC:
		return 6
	case CurrencyBTC:
		return 3
	default:
		return 0
	}
}

var (
	// EVM transaction hash: 0x followed by 64 hex characters
	evmTxHashPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
	// Bitcoin transaction id: 64 hex characters, no prefix
	btcTxHashPattern = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)
)

// ValidateTxHash validates a transaction hash for this currency's network.
func (c Currency) ValidateTxHash(txHash string) error {
	if txHash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	switch {
	case c.IsEVM():
		if !evmTxHashPattern.MatchString(txHash) {
			return fmt.Errorf("invalid %s transaction hash: must be 0x followed by 64 hex characters", c)
		}
		return nil
	case c == CurrencyBTC:
		if !btcTxHashPattern.MatchString(txHash) {
			return fmt.Errorf("invalid BTC transaction id: must be 64 hex characters")
		}
		return nil
	default:
		return fmt.Errorf("cannot validate transaction hash for unknown currency: %s", c)
	}
}
