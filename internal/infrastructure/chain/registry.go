package chain

import (
	"context"
	"fmt"

	appchain "sealpay/internal/application/payment/chain"
	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/shared/config"
)

// Registry maps currencies to their configured chain clients. Unconfigured
// currencies resolve to an error so a misconfiguration surfaces on first use
// instead of silently degrading.
type Registry struct {
	clients map[vo.Currency]appchain.Client
}

// NewRegistry builds one client per configured currency from the payment
// chain configuration. A non-nil observer wraps every client with call
// duration recording.
func NewRegistry(ctx context.Context, cfg *config.PaymentConfig, observer CallObserver) (*Registry, error) {
	clients := make(map[vo.Currency]appchain.Client, len(cfg.Chains))

	for code, chainCfg := range cfg.Chains {
		currency, err := vo.NewCurrency(code)
		if err != nil {
			return nil, fmt.Errorf("chain config: %w", err)
		}

		client, err := buildClient(ctx, currency, chainCfg, cfg.DestinationAddresses[code])
		if err != nil {
			return nil, fmt.Errorf("chain config for %s: %w", code, err)
		}
		clients[currency] = instrument(client, currency.String(), observer)
	}

	return &Registry{clients: clients}, nil
}

// NewRegistryWithClients builds a registry from prebuilt clients, used by
// tests and dev wiring.
func NewRegistryWithClients(clients map[vo.Currency]appchain.Client) *Registry {
	return &Registry{clients: clients}
}

func (r *Registry) ClientFor(currency vo.Currency) (appchain.Client, error) {
	client, ok := r.clients[currency]
	if !ok {
		return nil, fmt.Errorf("no chain client configured for %s", currency)
	}
	return client, nil
}

func buildClient(ctx context.Context, currency vo.Currency, cfg config.ChainConfig, destination string) (appchain.Client, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockClient(), nil
	case "rpc", "":
		if !currency.IsEVM() {
			return nil, fmt.Errorf("rpc mode requires an EVM network")
		}
		evmCfg := EVMClientConfig{
			RPCURL:         cfg.RPCURL,
			RequestTimeout: cfg.RequestTimeout,
		}
		if currency.IsToken() {
			if cfg.TokenContract == "" {
				return nil, fmt.Errorf("token contract is required for %s", currency)
			}
			evmCfg.TokenContract = cfg.TokenContract
		}
		return NewEVMClient(ctx, evmCfg)
	case "explorer":
		if currency != vo.CurrencyBTC {
			return nil, fmt.Errorf("explorer mode is only supported for BTC")
		}
		return NewBTCClient(BTCClientConfig{
			ExplorerURL:    cfg.ExplorerURL,
			Destination:    destination,
			RequestTimeout: cfg.RequestTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported chain mode: %s", cfg.Mode)
	}
}
