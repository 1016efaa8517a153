package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"storepulse-analytics-core/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedConnection(t *testing.T, store *MemoryStore, tenantID, shop string) *domain.Connection {
	t.Helper()

	conn := &domain.Connection{
		TenantID:   tenantID,
		Platform:   domain.PlatformShopify,
		ShopDomain: shop,
		Active:     true,
	}
	require.NoError(t, store.Connections().Create(context.Background(), conn))
	return conn
}

func TestOrderUpsertReportsInsertion(t *testing.T) {
	store := NewMemoryStore()
	conn := seedConnection(t, store, "tenant-1", "acme.myshopify.com")
	ctx := context.Background()

	inserted, err := store.Orders().Upsert(ctx, &domain.Order{ConnectionID: conn.ID, ExternalOrderID: "1001"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.Orders().Upsert(ctx, &domain.Order{ConnectionID: conn.ID, ExternalOrderID: "1001"})
	require.NoError(t, err)
	assert.False(t, inserted)

	// Same external id under another connection is a distinct order.
	other := seedConnection(t, store, "tenant-1", "other.myshopify.com")
	inserted, err = store.Orders().Upsert(ctx, &domain.Order{ConnectionID: other.ID, ExternalOrderID: "1001"})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestConcurrentCounterIncrements(t *testing.T) {
	store := NewMemoryStore()
	conn := seedConnection(t, store, "tenant-1", "acme.myshopify.com")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, store.Connections().IncrementOrdersProcessed(ctx, conn.ID, 1))
		}()
	}
	wg.Wait()

	total, err := store.Connections().SumOrdersProcessed(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), total)
}

func TestGetByShopDomainNotFoundIsNil(t *testing.T) {
	store := NewMemoryStore()

	conn, err := store.Connections().GetByShopDomain(context.Background(), "nobody.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, conn)
}

func TestDeactivateKeepsRow(t *testing.T) {
	store := NewMemoryStore()
	conn := seedConnection(t, store, "tenant-1", "acme.myshopify.com")
	ctx := context.Background()

	require.NoError(t, store.Connections().Deactivate(ctx, "acme.myshopify.com"))

	got, err := store.Connections().GetByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	count, err := store.Connections().CountByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUsageDeleteOlderThan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	for _, age := range []time.Duration{100 * 24 * time.Hour, 50 * 24 * time.Hour, time.Hour} {
		require.NoError(t, store.Usage().Insert(ctx, &domain.UsageRecord{
			TenantID:  "tenant-1",
			Path:      "/api/v1/orders",
			CreatedAt: now.Add(-age),
		}))
	}

	removed, err := store.Usage().DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	records, err := store.Usage().ListByTenant(ctx, "tenant-1", 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTierListReturnsOnlyActive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Tiers().Save(ctx, &domain.SubscriptionTier{ID: "live", MaxOrders: 100, Active: true}))
	require.NoError(t, store.Tiers().Save(ctx, &domain.SubscriptionTier{ID: "retired", MaxOrders: 50, Active: false}))

	tiers, err := store.Tiers().List(ctx)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "live", tiers[0].ID)

	_, err = store.Tiers().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
}

func TestSubscriptionUpdateUnknownID(t *testing.T) {
	store := NewMemoryStore()

	err := store.Subscriptions().Update(context.Background(), &domain.UserSubscription{ID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestTouchLastSyncLeavesCountersAlone(t *testing.T) {
	store := NewMemoryStore()
	conn := seedConnection(t, store, "tenant-1", "acme.myshopify.com")
	ctx := context.Background()

	require.NoError(t, store.Connections().IncrementOrdersProcessed(ctx, conn.ID, 7))
	require.NoError(t, store.Connections().TouchLastSync(ctx, conn.ID, time.Now()))

	got, err := store.Connections().GetByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastSyncAt)
	assert.Equal(t, int64(7), got.TotalOrdersProcessed)
}

func TestListByTenantJoinsThroughConnections(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	mine := seedConnection(t, store, "tenant-1", "mine.myshopify.com")
	theirs := seedConnection(t, store, "tenant-2", "theirs.myshopify.com")

	_, err := store.Orders().Upsert(ctx, &domain.Order{ConnectionID: mine.ID, ExternalOrderID: "1"})
	require.NoError(t, err)
	_, err = store.Orders().Upsert(ctx, &domain.Order{ConnectionID: theirs.ID, ExternalOrderID: "2"})
	require.NoError(t, err)

	orders, err := store.Orders().ListByTenant(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ConnectionID)
}
