// Package chain defines read-only blockchain access for payment
// verification. One implementation exists per currency network; a mock
// implementation can be selected by configuration for offline operation.
package chain

import (
	"context"
)

// TransactionInfo is the subset of a transaction the verifier needs.
// ValueRaw is a decimal string of the network's smallest unit; for ERC-20
// settlements it is the token transfer amount read from the transfer log,
// and To is the log's recipient rather than the contract address.
type TransactionInfo struct {
	Exists      bool
	Pending     bool
	To          string
	ValueRaw    string
	BlockNumber uint64
}

// Client provides read-only access to one currency network.
// Implementations must honor context deadlines; a provider outage is an
// error, never silently degraded data.
type Client interface {
	// GetTransaction looks up a transaction by hash. A missing transaction
	// is reported via Exists=false with a nil error.
	GetTransaction(ctx context.Context, txHash string) (TransactionInfo, error)

	// GetConfirmations returns the number of blocks mined on top of the
	// block containing the transaction. Pending transactions report 0.
	GetConfirmations(ctx context.Context, txHash string) (int, error)

	// CurrentHeight returns the chain head height.
	CurrentHeight(ctx context.Context) (uint64, error)
}
