// Package intent holds the PaymentIntent aggregate: a fiat-priced crypto
// payment tracked from creation through on-chain confirmation.
package intent

import (
	"fmt"
	"time"

	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/shared/biztime"
	"sealpay/internal/shared/id"
)

// PaymentIntent binds a frozen token price to a destination address and
// follows the submitted transaction until it is final. The token amount is
// computed once at creation and never recomputed; the intent binds to the
// first valid transaction hash it sees.
type PaymentIntent struct {
	id         string
	fiatAmount vo.Money
	currency   vo.Currency

	// tokenAmount is a decimal string of the currency's smallest on-chain
	// unit (wei, sat, micro-USDC). 18-decimal chains overflow uint64, so
	// amounts stay as strings and are parsed to big.Int for comparisons.
	tokenAmount        string
	destinationAddress string

	requiredConfirmations int
	status                vo.IntentStatus
	txHash                *string
	confirmations         int
	peakConfirmations     int

	failureReason *string
	verifiedAt    *time.Time

	createdAt time.Time
	expiresAt time.Time
	updatedAt time.Time

	metadata map[string]string
	version  int
}

// NewPaymentIntent creates an intent in the created state. intentID may be
// empty, in which case a prefixed short ID is generated; callers supply
// their own ID to make creation idempotent.
func NewPaymentIntent(
	intentID string,
	fiatAmount vo.Money,
	currency vo.Currency,
	tokenAmount string,
	destinationAddress string,
	requiredConfirmations int,
	window time.Duration,
	metadata map[string]string,
) (*PaymentIntent, error) {
	if !fiatAmount.IsPositive() {
		return nil, fmt.Errorf("fiat amount must be positive")
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("unsupported currency: %s", currency)
	}
	if tokenAmount == "" {
		return nil, fmt.Errorf("token amount is required")
	}
	if destinationAddress == "" {
		return nil, fmt.Errorf("destination address is required")
	}
	if requiredConfirmations <= 0 {
		requiredConfirmations = currency.RequiredConfirmations()
	}
	if window <= 0 {
		return nil, fmt.Errorf("intent window must be positive")
	}

	if intentID == "" {
		intentID = id.MustGenerateWithPrefix(id.PrefixPaymentIntent, id.DefaultLength)
	}
	if metadata == nil {
		metadata = make(map[string]string)
	}

	now := biztime.NowUTC()
	return &PaymentIntent{
		id:                    intentID,
		fiatAmount:            fiatAmount,
		currency:              currency,
		tokenAmount:           tokenAmount,
		destinationAddress:    destinationAddress,
		requiredConfirmations: requiredConfirmations,
		status:                vo.IntentStatusCreated,
		metadata:              metadata,
		createdAt:             now,
		expiresAt:             now.Add(window),
		updatedAt:             now,
	}, nil
}

// BeginAwaitingTx moves a freshly created intent into awaiting_tx. The
// created state exists only for observability; intents are persisted
// already awaiting a transaction.
func (p *PaymentIntent) BeginAwaitingTx() error {
	if p.status != vo.IntentStatusCreated {
		return fmt.Errorf("cannot await transaction with status %s", p.status)
	}
	p.status = vo.IntentStatusAwaitingTx
	p.touch()
	return nil
}

// AttachTransaction binds the intent to its transaction hash and moves it
// into confirming. The hash is set at most once.
func (p *PaymentIntent) AttachTransaction(txHash string) error {
	if p.status.IsTerminal() {
		return fmt.Errorf("cannot attach transaction with terminal status %s", p.status)
	}
	if p.txHash != nil {
		if *p.txHash == txHash {
			return nil
		}
		return fmt.Errorf("intent already bound to transaction %s", *p.txHash)
	}
	if p.status != vo.IntentStatusAwaitingTx {
		return fmt.Errorf("cannot attach transaction with status %s", p.status)
	}

	p.txHash = &txHash
	p.status = vo.IntentStatusConfirming
	p.touch()
	return nil
}

// RecordConfirmations stores the latest observed confirmation count and
// tracks the peak ever seen, which the reorg check compares against.
func (p *PaymentIntent) RecordConfirmations(count int) error {
	if p.status != vo.IntentStatusConfirming {
		return fmt.Errorf("cannot record confirmations with status %s", p.status)
	}
	if count < 0 {
		return fmt.Errorf("confirmation count cannot be negative")
	}
	p.confirmations = count
	if count > p.peakConfirmations {
		p.peakConfirmations = count
	}
	p.touch()
	return nil
}

// ResetPeak rebases the confirmation peak after a chain reorganization left
// the transaction on the canonical chain with fewer confirmations.
func (p *PaymentIntent) ResetPeak(count int) {
	p.confirmations = count
	p.peakConfirmations = count
	p.touch()
}

// MarkVerified finalizes the intent once enough confirmations accumulated.
func (p *PaymentIntent) MarkVerified() error {
	if p.status == vo.IntentStatusVerified {
		return nil
	}
	if p.status != vo.IntentStatusConfirming {
		return fmt.Errorf("cannot verify intent with status %s", p.status)
	}
	if p.confirmations < p.requiredConfirmations {
		return fmt.Errorf("insufficient confirmations: %d of %d", p.confirmations, p.requiredConfirmations)
	}

	now := biztime.NowUTC()
	p.status = vo.IntentStatusVerified
	p.verifiedAt = &now
	p.touch()
	return nil
}

// MarkFailed finalizes the intent after the bound transaction vanished from
// the canonical chain.
func (p *PaymentIntent) MarkFailed(reason string) error {
	if p.status.IsTerminal() {
		return fmt.Errorf("cannot fail intent with terminal status %s", p.status)
	}
	p.status = vo.IntentStatusFailed
	p.failureReason = &reason
	p.touch()
	return nil
}

// MarkExpired finalizes a non-terminal intent whose deadline passed.
// Expiry never overrides verified.
func (p *PaymentIntent) MarkExpired() error {
	if p.status.IsTerminal() {
		return nil
	}
	p.status = vo.IntentStatusExpired
	p.touch()
	return nil
}

// IsExpired reports whether the deadline passed while non-terminal.
func (p *PaymentIntent) IsExpired() bool {
	return !p.status.IsTerminal() && biztime.NowUTC().After(p.expiresAt)
}

// Matches reports whether creation parameters are identical to this
// intent's, which makes a repeated create with the same ID idempotent.
func (p *PaymentIntent) Matches(fiatAmount vo.Money, currency vo.Currency, metadata map[string]string) bool {
	if !p.fiatAmount.Equals(fiatAmount) || p.currency != currency {
		return false
	}
	if len(p.metadata) != len(metadata) {
		return false
	}
	for k, v := range metadata {
		if p.metadata[k] != v {
			return false
		}
	}
	return true
}

func (p *PaymentIntent) touch() {
	p.updatedAt = biztime.NowUTC()
}

func (p *PaymentIntent) ID() string                 { return p.id }
func (p *PaymentIntent) FiatAmount() vo.Money       { return p.fiatAmount }
func (p *PaymentIntent) Currency() vo.Currency      { return p.currency }
func (p *PaymentIntent) TokenAmount() string        { return p.tokenAmount }
func (p *PaymentIntent) DestinationAddress() string { return p.destinationAddress }
func (p *PaymentIntent) RequiredConfirmations() int { return p.requiredConfirmations }
func (p *PaymentIntent) Status() vo.IntentStatus    { return p.status }
func (p *PaymentIntent) TxHash() *string            { return p.txHash }
func (p *PaymentIntent) Confirmations() int         { return p.confirmations }
func (p *PaymentIntent) PeakConfirmations() int     { return p.peakConfirmations }
func (p *PaymentIntent) FailureReason() *string     { return p.failureReason }
func (p *PaymentIntent) VerifiedAt() *time.Time     { return p.verifiedAt }
func (p *PaymentIntent) CreatedAt() time.Time       { return p.createdAt }
func (p *PaymentIntent) ExpiresAt() time.Time       { return p.expiresAt }
func (p *PaymentIntent) UpdatedAt() time.Time       { return p.updatedAt }
func (p *PaymentIntent) Metadata() map[string]string {
	return p.metadata
}

// Version returns the optimistic-concurrency counter as loaded from the
// store. The repository bumps it on every successful conditional write.
func (p *PaymentIntent) Version() int { return p.version }

// SetVersion is used by repositories after a conditional write succeeds.
func (p *PaymentIntent) SetVersion(v int) { p.version = v }

// ReconstructParams carries all persisted fields back into the aggregate.
type ReconstructParams struct {
	ID                    string
	FiatAmount            vo.Money
	Currency              vo.Currency
	TokenAmount           string
	DestinationAddress    string
	RequiredConfirmations int
	Status                vo.IntentStatus
	TxHash                *string
	Confirmations         int
	PeakConfirmations     int
	FailureReason         *string
	VerifiedAt            *time.Time
	CreatedAt             time.Time
	ExpiresAt             time.Time
	UpdatedAt             time.Time
	Metadata              map[string]string
	Version               int
}

// Reconstruct rebuilds a PaymentIntent from persistence.
func Reconstruct(params ReconstructParams) *PaymentIntent {
	metadata := params.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	return &PaymentIntent{
		id:                    params.ID,
		fiatAmount:            params.FiatAmount,
		currency:              params.Currency,
		tokenAmount:           params.TokenAmount,
		destinationAddress:    params.DestinationAddress,
		requiredConfirmations: params.RequiredConfirmations,
		status:                params.Status,
		txHash:                params.TxHash,
		confirmations:         params.Confirmations,
		peakConfirmations:     params.PeakConfirmations,
		failureReason:         params.FailureReason,
		verifiedAt:            params.VerifiedAt,
		createdAt:             params.CreatedAt,
		expiresAt:             params.ExpiresAt,
		updatedAt:             params.UpdatedAt,
		metadata:              metadata,
		version:               params.Version,
	}
}
