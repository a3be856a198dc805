package usecases_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealpay/internal/application/coupon/threshold"
	"sealpay/internal/application/coupon/usecases"
	"sealpay/internal/domain/coupon"
	vo "sealpay/internal/domain/coupon/valueobjects"
	"sealpay/internal/infrastructure/cache"
	"sealpay/internal/infrastructure/repository"
	thresholdinfra "sealpay/internal/infrastructure/threshold"
	"sealpay/internal/shared/biztime"
	apperrors "sealpay/internal/shared/errors"
	"sealpay/internal/shared/logger"
)

// --- helpers ---

const validProof = "proof-for-rcpt_1"

// stubVerifier accepts exactly one proof and maps it to a holder.
type stubVerifier struct {
	proof  string
	holder string
}

func (v *stubVerifier) Check(_ context.Context, holderProof, _ string) (string, error) {
	if holderProof != v.proof {
		return "", fmt.Errorf("signature mismatch")
	}
	return v.holder, nil
}

type revealFixture struct {
	uc        *usecases.RevealCouponUseCase
	repo      *repository.MemoryCouponRepository
	threshold *thresholdinfra.MockClient
	cache     *cache.MemoryRevealCache
}

func newRevealFixture(t *testing.T) *revealFixture {
	t.Helper()
	repo := repository.NewMemoryCouponRepository()
	mock := thresholdinfra.NewMockClient()
	mock.SetPlaintext("capsule-1", "SAVE20")
	revealCache := cache.NewMemoryRevealCache()
	verifier := &stubVerifier{proof: validProof, holder: "holder-1"}
	uc := usecases.NewRevealCouponUseCase(repo, mock, verifier, revealCache, logger.NewNop())
	return &revealFixture{uc: uc, repo: repo, threshold: mock, cache: revealCache}
}

func (f *revealFixture) storeCoupon(t *testing.T, validFrom, validUntil time.Time) *coupon.CouponDisclosure {
	t.Helper()
	c, err := coupon.NewCouponDisclosure("cpn_reveal1", "rcpt_1", "capsule-1", "ct-1", "policy-1", validFrom, validUntil)
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(context.Background(), c))
	return c
}

func (f *revealFixture) storeOpenCoupon(t *testing.T) *coupon.CouponDisclosure {
	t.Helper()
	now := biztime.NowUTC()
	return f.storeCoupon(t, now.Add(-time.Hour), now.Add(time.Hour))
}

// =============================================================================
// Reveal
// =============================================================================

func TestRevealCoupon_DecryptsOnceAcrossRepeats(t *testing.T) {
	f := newRevealFixture(t)
	f.storeOpenCoupon(t)

	for i := 0; i < 3; i++ {
		plaintext, err := f.uc.Execute(context.Background(), "cpn_reveal1", validProof)
		require.NoError(t, err)
		assert.Equal(t, "SAVE20", plaintext)
	}
	assert.Equal(t, 1, f.threshold.Calls())

	stored, err := f.repo.GetByID(context.Background(), "cpn_reveal1")
	require.NoError(t, err)
	assert.Equal(t, vo.StateRevealed, stored.State())
}

func TestRevealCoupon_RepeatServedFromRecordWhenCacheCold(t *testing.T) {
	f := newRevealFixture(t)
	f.storeOpenCoupon(t)

	_, err := f.uc.Execute(context.Background(), "cpn_reveal1", validProof)
	require.NoError(t, err)

	// Another instance would not share the process-local cache; the stored
	// plaintext on the record is the fallback.
	coldUC := usecases.NewRevealCouponUseCase(f.repo, f.threshold, &stubVerifier{proof: validProof, holder: "holder-1"}, cache.NewMemoryRevealCache(), logger.NewNop())
	plaintext, err := coldUC.Execute(context.Background(), "cpn_reveal1", validProof)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", plaintext)
	assert.Equal(t, 1, f.threshold.Calls())
}

func TestRevealCoupon_RequiresProof(t *testing.T) {
	f := newRevealFixture(t)
	f.storeOpenCoupon(t)

	_, err := f.uc.Execute(context.Background(), "cpn_reveal1", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))

	_, err = f.uc.Execute(context.Background(), "cpn_reveal1", "forged-proof")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthorized))
	assert.Zero(t, f.threshold.Calls())
}

func TestRevealCoupon_UnknownCoupon(t *testing.T) {
	f := newRevealFixture(t)

	_, err := f.uc.Execute(context.Background(), "cpn_missing", validProof)
	assert.True(t, apperrors.IsNotFoundError(err))
}

// =============================================================================
// Window Enforcement
// =============================================================================

func TestRevealCoupon_OutsideWindowIsExpired(t *testing.T) {
	f := newRevealFixture(t)
	now := biztime.NowUTC()

	tests := []struct {
		name       string
		validFrom  time.Time
		validUntil time.Time
	}{
		{"window not yet open", now.Add(time.Hour), now.Add(2 * time.Hour)},
		{"window just closed", now.Add(-2 * time.Hour), now.Add(-time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemoryCouponRepository()
			c, err := coupon.NewCouponDisclosure("cpn_w", "rcpt_1", "capsule-1", "ct-1", "policy-1", tt.validFrom, tt.validUntil)
			require.NoError(t, err)
			require.NoError(t, repo.Create(context.Background(), c))

			uc := usecases.NewRevealCouponUseCase(repo, f.threshold, &stubVerifier{proof: validProof, holder: "holder-1"}, nil, logger.NewNop())
			_, err = uc.Execute(context.Background(), "cpn_w", validProof)
			assert.True(t, apperrors.IsExpiredError(err))

			// The sweeper owns the expired transition.
			stored, getErr := repo.GetByID(context.Background(), "cpn_w")
			require.NoError(t, getErr)
			assert.Equal(t, vo.StateLocked, stored.State())
		})
	}
	assert.Zero(t, f.threshold.Calls())
}

func TestRevealCoupon_ExpiredStateReported(t *testing.T) {
	f := newRevealFixture(t)
	c := f.storeOpenCoupon(t)
	require.NoError(t, c.MarkExpired())
	require.NoError(t, f.repo.Update(context.Background(), c))

	_, err := f.uc.Execute(context.Background(), "cpn_reveal1", validProof)
	assert.True(t, apperrors.IsExpiredError(err))
}

func TestRevealCoupon_PolicyExpiredOnCoordinator(t *testing.T) {
	f := newRevealFixture(t)
	f.storeOpenCoupon(t)
	f.threshold.ExpirePolicy("policy-1")

	_, err := f.uc.Execute(context.Background(), "cpn_reveal1", validProof)
	assert.True(t, apperrors.IsExpiredError(err))
}

// =============================================================================
// Quorum Outages
// =============================================================================

func TestRevealCoupon_QuorumOutageNotCached(t *testing.T) {
	f := newRevealFixture(t)
	f.storeOpenCoupon(t)
	f.threshold.FailWith(threshold.ErrQuorumUnavailable)

	_, err := f.uc.Execute(context.Background(), "cpn_reveal1", validProof)
	assert.True(t, apperrors.IsUnavailableError(err))
	assert.Equal(t, 1, f.threshold.Calls())

	stored, err := f.repo.GetByID(context.Background(), "cpn_reveal1")
	require.NoError(t, err)
	assert.Equal(t, vo.StateLocked, stored.State())

	// Quorum recovers; the retry must hit the network again, proving the
	// failure was not cached.
	f.threshold.FailWith(nil)
	plaintext, err := f.uc.Execute(context.Background(), "cpn_reveal1", validProof)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", plaintext)
	assert.Equal(t, 2, f.threshold.Calls())
}
