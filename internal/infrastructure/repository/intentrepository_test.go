package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sealpay/internal/domain/intent"
	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/infrastructure/persistence/models"
	"sealpay/internal/shared/biztime"
)

// --- helpers ---

func setupIntentDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.IntentModel{}))
	return db
}

func newTestIntent(t *testing.T, id string, window time.Duration) *intent.PaymentIntent {
	t.Helper()
	p, err := intent.NewPaymentIntent(
		id,
		vo.NewMoney(2999, "USD"),
		vo.CurrencyMATIC,
		"39986666666666666667",
		"0xAbC0000000000000000000000000000000000001",
		12,
		window,
		map[string]string{"order": "ord_1"},
	)
	require.NoError(t, err)
	require.NoError(t, p.BeginAwaitingTx())
	return p
}

// intentStore lets the gorm and in-memory implementations share one suite.
type intentStore interface {
	intent.Repository
}

func intentStores(t *testing.T) map[string]intentStore {
	return map[string]intentStore{
		"gorm":   NewIntentRepository(setupIntentDB(t)),
		"memory": NewMemoryIntentRepository(),
	}
}

// =============================================================================
// Round Trip
// =============================================================================

func TestIntentRepository_CreateAndGet(t *testing.T) {
	for name, repo := range intentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := newTestIntent(t, "pi_rt1", 30*time.Minute)
			require.NoError(t, repo.Create(ctx, p))

			found, err := repo.GetByID(ctx, "pi_rt1")
			require.NoError(t, err)
			assert.Equal(t, p.ID(), found.ID())
			assert.Equal(t, vo.IntentStatusAwaitingTx, found.Status())
			assert.Equal(t, p.TokenAmount(), found.TokenAmount())
			assert.Equal(t, p.DestinationAddress(), found.DestinationAddress())
			assert.Equal(t, map[string]string{"order": "ord_1"}, found.Metadata())
			assert.Equal(t, 0, found.Version())
		})
	}
}

func TestIntentRepository_GetMissing(t *testing.T) {
	for name, repo := range intentStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetByID(context.Background(), "pi_missing")
			assert.ErrorIs(t, err, intent.ErrNotFound)
		})
	}
}

func TestIntentRepository_DuplicateCreateRejected(t *testing.T) {
	for name, repo := range intentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newTestIntent(t, "pi_dup", time.Hour)))
			assert.Error(t, repo.Create(ctx, newTestIntent(t, "pi_dup", time.Hour)))
		})
	}
}

// =============================================================================
// Optimistic Concurrency
// =============================================================================

func TestIntentRepository_UpdateBumpsVersion(t *testing.T) {
	txHash := "0x" + strings.Repeat("a", 64)

	for name, repo := range intentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := newTestIntent(t, "pi_ver1", time.Hour)
			require.NoError(t, repo.Create(ctx, p))

			require.NoError(t, p.AttachTransaction(txHash))
			require.NoError(t, repo.Update(ctx, p))
			assert.Equal(t, 1, p.Version())

			found, err := repo.GetByID(ctx, "pi_ver1")
			require.NoError(t, err)
			assert.Equal(t, vo.IntentStatusConfirming, found.Status())
			require.NotNil(t, found.TxHash())
			assert.Equal(t, txHash, *found.TxHash())
			assert.Equal(t, 1, found.Version())
		})
	}
}

func TestIntentRepository_StaleWriteConflicts(t *testing.T) {
	txHash := "0x" + strings.Repeat("a", 64)

	for name, repo := range intentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newTestIntent(t, "pi_cas1", time.Hour)))

			first, err := repo.GetByID(ctx, "pi_cas1")
			require.NoError(t, err)
			second, err := repo.GetByID(ctx, "pi_cas1")
			require.NoError(t, err)

			require.NoError(t, first.AttachTransaction(txHash))
			require.NoError(t, repo.Update(ctx, first))

			// The second copy was loaded at the old version; its write loses.
			require.NoError(t, second.AttachTransaction(txHash))
			assert.ErrorIs(t, repo.Update(ctx, second), intent.ErrVersionConflict)
		})
	}
}

// =============================================================================
// Expiry Listing
// =============================================================================

func TestIntentRepository_ListExpired(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t.Cleanup(biztime.ResetNowFunc)

	for name, repo := range intentStores(t) {
		t.Run(name, func(t *testing.T) {
			biztime.SetNowFunc(func() time.Time { return base })

			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, newTestIntent(t, "pi_old", 5*time.Minute)))
			require.NoError(t, repo.Create(ctx, newTestIntent(t, "pi_older", time.Minute)))
			require.NoError(t, repo.Create(ctx, newTestIntent(t, "pi_fresh", time.Hour)))

			verified := newTestIntent(t, "pi_done", 5*time.Minute)
			require.NoError(t, verified.AttachTransaction("0x"+strings.Repeat("b", 64)))
			require.NoError(t, verified.RecordConfirmations(12))
			require.NoError(t, verified.MarkVerified())
			require.NoError(t, repo.Create(ctx, verified))

			biztime.SetNowFunc(func() time.Time { return base.Add(10 * time.Minute) })

			overdue, err := repo.ListExpired(ctx, 10)
			require.NoError(t, err)
			require.Len(t, overdue, 2)
			assert.Equal(t, "pi_older", overdue[0].ID())
			assert.Equal(t, "pi_old", overdue[1].ID())

			limited, err := repo.ListExpired(ctx, 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "pi_older", limited[0].ID())
		})
	}
}
