package application

import (
	"context"
	"testing"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriptionFixture(t *testing.T) (*SubscriptionService, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	svc := NewSubscriptionService(store.Subscriptions(), store.Tiers(), zerolog.Nop())
	require.NoError(t, svc.SeedTiers(context.Background()))
	return svc, store
}

func TestGetOrCreateStartsTrial(t *testing.T) {
	svc, _ := newSubscriptionFixture(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sub, err := svc.GetOrCreate(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, TierTrial, sub.TierID)
	assert.True(t, sub.Trial)
	assert.True(t, sub.Active)
	assert.Equal(t, start.Add(14*24*time.Hour), sub.EndsAt)

	again, err := svc.GetOrCreate(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
}

func TestTrialExpiryComputedOnRead(t *testing.T) {
	svc, _ := newSubscriptionFixture(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sub, err := svc.GetOrCreate(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.False(t, sub.Expired(start.Add(13*24*time.Hour)))
	assert.True(t, sub.Expired(start.Add(15*24*time.Hour)))
}

func TestEffectiveTier(t *testing.T) {
	svc, _ := newSubscriptionFixture(t)

	tier, err := svc.EffectiveTier(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, TierTrial, tier.ID)
	assert.Equal(t, int64(100), tier.MaxOrders)
	assert.Equal(t, 1, tier.MaxStores)
}

func TestEffectiveTierUnknownTier(t *testing.T) {
	svc, store := newSubscriptionFixture(t)
	ctx := context.Background()

	require.NoError(t, store.Subscriptions().Create(ctx, &domain.UserSubscription{
		TenantID: "tenant-1",
		TierID:   "retired-tier",
		Active:   true,
	}))

	_, err := svc.EffectiveTier(ctx, "tenant-1")
	require.ErrorIs(t, err, domain.ErrTierNotFound)
}

func TestCancelSubscription(t *testing.T) {
	svc, store := newSubscriptionFixture(t)
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, "tenant-1")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, "tenant-1"))

	sub, err := store.Subscriptions().GetActiveByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Nil(t, sub)

	// Cancelling with nothing active is a no-op.
	require.NoError(t, svc.Cancel(ctx, "tenant-2"))
}

func TestListTiersOrderedByVolume(t *testing.T) {
	svc, _ := newSubscriptionFixture(t)

	tiers, err := svc.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, tiers, 4)
	assert.Equal(t, TierTrial, tiers[0].ID)
	assert.Equal(t, TierEnterprise, tiers[3].ID)
}
