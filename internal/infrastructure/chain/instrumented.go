package chain

import (
	"context"
	"time"

	appchain "sealpay/internal/application/payment/chain"
)

// CallObserver receives the duration of chain client calls.
type CallObserver interface {
	ObserveChainCall(currency, method string, d time.Duration)
}

// instrumentedClient wraps a client and reports call durations.
type instrumentedClient struct {
	inner    appchain.Client
	currency string
	observer CallObserver
}

func instrument(inner appchain.Client, currency string, observer CallObserver) appchain.Client {
	if observer == nil {
		return inner
	}
	return &instrumentedClient{inner: inner, currency: currency, observer: observer}
}

func (c *instrumentedClient) GetTransaction(ctx context.Context, txHash string) (appchain.TransactionInfo, error) {
	start := time.Now()
	info, err := c.inner.GetTransaction(ctx, txHash)
	c.observer.ObserveChainCall(c.currency, "get_transaction", time.Since(start))
	return info, err
}

func (c *instrumentedClient) GetConfirmations(ctx context.Context, txHash string) (int, error) {
	start := time.Now()
	count, err := c.inner.GetConfirmations(ctx, txHash)
	c.observer.ObserveChainCall(c.currency, "get_confirmations", time.Since(start))
	return count, err
}

func (c *instrumentedClient) CurrentHeight(ctx context.Context) (uint64, error) {
	start := time.Now()
	height, err := c.inner.CurrentHeight(ctx)
	c.observer.ObserveChainCall(c.currency, "current_height", time.Since(start))
	return height, err
}
