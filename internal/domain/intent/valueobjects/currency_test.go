package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    Currency
		wantErr bool
	}{
		{"MATIC", CurrencyMATIC, false},
		{"eth", CurrencyETH, false},
		{"Btc", CurrencyBTC, false},
		{"USDC", CurrencyUSDC, false},
		{"DOGE", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrency_Properties(t *testing.T) {
	assert.True(t, CurrencyMATIC.IsEVM())
	assert.True(t, CurrencyETH.IsEVM())
	assert.True(t, CurrencyUSDC.IsEVM())
	assert.False(t, CurrencyBTC.IsEVM())

	assert.True(t, CurrencyUSDC.IsToken())
	assert.False(t, CurrencyETH.IsToken())

	assert.Equal(t, 18, CurrencyMATIC.Decimals())
	assert.Equal(t, 18, CurrencyETH.Decimals())
	assert.Equal(t, 8, CurrencyBTC.Decimals())
	assert.Equal(t, 6, CurrencyUSDC.Decimals())

	assert.Equal(t, 12, CurrencyMATIC.RequiredConfirmations())
	assert.Equal(t, 6, CurrencyETH.RequiredConfirmations())
	assert.Equal(t, 3, CurrencyBTC.RequiredConfirmations())
	assert.Equal(t, 6, CurrencyUSDC.RequiredConfirmations())
}

func TestCurrency_ValidateTxHash(t *testing.T) {
	evmHash := "0x" + strings.Repeat("ab", 32)
	btcHash := strings.Repeat("ab", 32)

	tests := []struct {
		name     string
		currency Currency
		hash     string
		wantErr  bool
	}{
		{"valid evm hash", CurrencyMATIC, evmHash, false},
		{"valid eth hash", CurrencyETH, evmHash, false},
		{"valid btc txid", CurrencyBTC, btcHash, false},
		{"btc txid with 0x prefix", CurrencyBTC, evmHash, true},
		{"evm hash missing prefix", CurrencyMATIC, btcHash, true},
		{"evm hash too short", CurrencyMATIC, "0xabc", true},
		{"non-hex characters", CurrencyMATIC, "0x" + strings.Repeat("zz", 32), true},
		{"empty hash", CurrencyETH, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.currency.ValidateTxHash(tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
