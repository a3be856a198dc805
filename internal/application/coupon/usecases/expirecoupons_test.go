package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealpay/internal/domain/coupon"
	vo "sealpay/internal/domain/coupon/valueobjects"
	"sealpay/internal/infrastructure/repository"
	"sealpay/internal/shared/biztime"
	"sealpay/internal/shared/logger"
)

func TestExpireCoupons_SweepsClosedWindows(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	biztime.SetNowFunc(func() time.Time { return base })
	t.Cleanup(biztime.ResetNowFunc)

	repo := repository.NewMemoryCouponRepository()

	overdue, err := coupon.NewCouponDisclosure("cpn_overdue", "rcpt_1", "cap", "ct", "policy-1", base.Add(-time.Hour), base.Add(10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), overdue))

	revealed, err := coupon.NewCouponDisclosure("cpn_revealed", "rcpt_2", "cap", "ct", "policy-1", base.Add(-time.Hour), base.Add(10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, revealed.MarkRevealed("SAVE20"))
	require.NoError(t, repo.Create(context.Background(), revealed))

	claimed, err := coupon.NewCouponDisclosure("cpn_claimed", "rcpt_3", "cap", "ct", "policy-1", base.Add(-time.Hour), base.Add(10*time.Minute))
	require.NoError(t, err)
	require.NoError(t, claimed.MarkRevealed("SAVE20"))
	require.NoError(t, claimed.MarkClaimed("holder-1"))
	require.NoError(t, repo.Create(context.Background(), claimed))

	current, err := coupon.NewCouponDisclosure("cpn_current", "rcpt_4", "cap", "ct", "policy-1", base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), current))

	biztime.SetNowFunc(func() time.Time { return base.Add(30 * time.Minute) })

	uc := NewExpireCouponsUseCase(repo, logger.NewNop())
	count, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for id, want := range map[string]vo.DisclosureState{
		"cpn_overdue":  vo.StateExpired,
		"cpn_revealed": vo.StateExpired,
		"cpn_claimed":  vo.StateClaimed,
		"cpn_current":  vo.StateLocked,
	} {
		stored, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, stored.State(), id)
	}
}

func TestExpireCoupons_EmptySweep(t *testing.T) {
	uc := NewExpireCouponsUseCase(repository.NewMemoryCouponRepository(), logger.NewNop())
	count, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
