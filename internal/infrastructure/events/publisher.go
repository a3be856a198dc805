// Package events publishes settlement notifications over NATS so downstream
// services (minting, dashboards) can react. Delivery is fire-and-forget; the
// store remains the source of truth.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"sealpay/internal/domain/coupon"
	"sealpay/internal/domain/intent"
	"sealpay/internal/shared/logger"
)

const (
	subjectIntentVerified = "sealpay.intent.verified"
	subjectCouponClaimed  = "sealpay.coupon.claimed"
)

// Publisher emits lifecycle events. A nil *Publisher is safe to call and
// publishes nothing, which is how an unconfigured NATS URL behaves.
type Publisher struct {
	conn   *nats.Conn
	logger logger.Interface
}

// NewPublisher connects to NATS. An empty URL returns a nil publisher,
// disabling events without a separate code path at the call sites.
func NewPublisher(url string, logger logger.Interface) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

type intentVerifiedEvent struct {
	IntentID      string    `json:"intent_id"`
	Currency      string    `json:"currency"`
	TokenAmount   string    `json:"token_amount"`
	TxHash        string    `json:"tx_hash,omitempty"`
	Confirmations int       `json:"confirmations"`
	VerifiedAt    time.Time `json:"verified_at"`
}

func (p *Publisher) IntentVerified(_ context.Context, pi *intent.PaymentIntent) {
	if p == nil {
		return
	}

	event := intentVerifiedEvent{
		IntentID:      pi.ID(),
		Currency:      pi.Currency().String(),
		TokenAmount:   pi.TokenAmount(),
		Confirmations: pi.Confirmations(),
	}
	if pi.TxHash() != nil {
		event.TxHash = *pi.TxHash()
	}
	if pi.VerifiedAt() != nil {
		event.VerifiedAt = *pi.VerifiedAt()
	}
	p.publish(subjectIntentVerified, event)
}

type couponClaimedEvent struct {
	CouponID  string    `json:"coupon_id"`
	ReceiptID string    `json:"receipt_id"`
	ClaimedBy string    `json:"claimed_by"`
	ClaimedAt time.Time `json:"claimed_at"`
}

func (p *Publisher) CouponClaimed(_ context.Context, c *coupon.CouponDisclosure) {
	if p == nil {
		return
	}

	event := couponClaimedEvent{
		CouponID:  c.ID(),
		ReceiptID: c.ReceiptID(),
	}
	if c.ClaimedBy() != nil {
		event.ClaimedBy = *c.ClaimedBy()
	}
	if c.ClaimedAt() != nil {
		event.ClaimedAt = *c.ClaimedAt()
	}
	p.publish(subjectCouponClaimed, event)
}

func (p *Publisher) publish(subject string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Errorw("failed to encode event", "subject", subject, "error", err)
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warnw("failed to publish event", "subject", subject, "error", err)
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
