package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sealpay/internal/domain/coupon"
	vo "sealpay/internal/domain/coupon/valueobjects"
	"sealpay/internal/infrastructure/persistence/models"
	"sealpay/internal/shared/biztime"
)

// --- helpers ---

func setupCouponDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CouponModel{}))
	return db
}

func newTestCoupon(t *testing.T, id string, validUntil time.Time) *coupon.CouponDisclosure {
	t.Helper()
	c, err := coupon.NewCouponDisclosure(id, "rcpt_1", "capsule-1", "ct-1", "policy-1", validUntil.Add(-24*time.Hour), validUntil)
	require.NoError(t, err)
	return c
}

func couponStores(t *testing.T) map[string]coupon.Repository {
	return map[string]coupon.Repository{
		"gorm":   NewCouponRepository(setupCouponDB(t)),
		"memory": NewMemoryCouponRepository(),
	}
}

// =============================================================================
// Round Trip
// =============================================================================

func TestCouponRepository_RevealedPlaintextSurvivesRoundTrip(t *testing.T) {
	for name, repo := range couponStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCoupon(t, "cpn_rt1", biztime.NowUTC().Add(time.Hour))
			require.NoError(t, repo.Create(ctx, c))

			require.NoError(t, c.MarkRevealed("SAVE20"))
			require.NoError(t, repo.Update(ctx, c))

			found, err := repo.GetByID(ctx, "cpn_rt1")
			require.NoError(t, err)
			assert.Equal(t, vo.StateRevealed, found.State())
			require.NotNil(t, found.RevealedPlaintext())
			assert.Equal(t, "SAVE20", *found.RevealedPlaintext())
			assert.Equal(t, 1, found.Version())
		})
	}
}

func TestCouponRepository_GetMissing(t *testing.T) {
	for name, repo := range couponStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetByID(context.Background(), "cpn_missing")
			assert.ErrorIs(t, err, coupon.ErrNotFound)
		})
	}
}

// =============================================================================
// Optimistic Concurrency
// =============================================================================

func TestCouponRepository_ConcurrentClaimLoses(t *testing.T) {
	for name, repo := range couponStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCoupon(t, "cpn_race1", biztime.NowUTC().Add(time.Hour))
			require.NoError(t, c.MarkRevealed("SAVE20"))
			require.NoError(t, repo.Create(ctx, c))

			first, err := repo.GetByID(ctx, "cpn_race1")
			require.NoError(t, err)
			second, err := repo.GetByID(ctx, "cpn_race1")
			require.NoError(t, err)

			require.NoError(t, first.MarkClaimed("holder-1"))
			require.NoError(t, repo.Update(ctx, first))

			// Both holders raced for one coupon; the stale copy must lose.
			require.NoError(t, second.MarkClaimed("holder-2"))
			assert.ErrorIs(t, repo.Update(ctx, second), coupon.ErrVersionConflict)

			stored, err := repo.GetByID(ctx, "cpn_race1")
			require.NoError(t, err)
			assert.Equal(t, vo.StateClaimed, stored.State())
			assert.Equal(t, "holder-1", *stored.ClaimedBy())
		})
	}
}

// =============================================================================
// Expiry Listing
// =============================================================================

func TestCouponRepository_ListExpired(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t.Cleanup(biztime.ResetNowFunc)

	for name, repo := range couponStores(t) {
		t.Run(name, func(t *testing.T) {
			biztime.SetNowFunc(func() time.Time { return base })

			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newTestCoupon(t, "cpn_old", base.Add(5*time.Minute))))
			require.NoError(t, repo.Create(ctx, newTestCoupon(t, "cpn_fresh", base.Add(time.Hour))))

			claimed := newTestCoupon(t, "cpn_done", base.Add(5*time.Minute))
			require.NoError(t, claimed.MarkRevealed("SAVE20"))
			require.NoError(t, claimed.MarkClaimed("holder-1"))
			require.NoError(t, repo.Create(ctx, claimed))

			biztime.SetNowFunc(func() time.Time { return base.Add(10 * time.Minute) })

			overdue, err := repo.ListExpired(ctx, 10)
			require.NoError(t, err)
			require.Len(t, overdue, 1)
			assert.Equal(t, "cpn_old", overdue[0].ID())
		})
	}
}
