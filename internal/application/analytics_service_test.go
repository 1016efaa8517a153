package application

import (
	"context"
	"testing"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrInt64(v int64) *int64 { return &v }

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *repository.MemoryStore, *domain.Connection) {
	t.Helper()

	store := repository.NewMemoryStore()
	conn := &domain.Connection{
		TenantID:   "tenant-1",
		Platform:   domain.PlatformShopify,
		ShopDomain: "acme.myshopify.com",
		Active:     true,
	}
	require.NoError(t, store.Connections().Create(context.Background(), conn))

	svc := NewAnalyticsService(store.Connections(), store.Orders(), store.Products(), zerolog.Nop())
	return svc, store, conn
}

func TestSummarizeExcludesRefundedRevenue(t *testing.T) {
	svc, store, conn := newAnalyticsFixture(t)
	ctx := context.Background()

	orders := []*domain.Order{
		{ConnectionID: conn.ID, ExternalOrderID: "1", TotalAmount: 100, Status: domain.OrderStatusCompleted},
		{ConnectionID: conn.ID, ExternalOrderID: "2", TotalAmount: 50, Status: domain.OrderStatusPending},
		{ConnectionID: conn.ID, ExternalOrderID: "3", TotalAmount: 70, Status: domain.OrderStatusRefunded},
	}
	for _, o := range orders {
		_, err := store.Orders().Upsert(ctx, o)
		require.NoError(t, err)
	}

	summary, err := svc.Summarize(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.OrderCount)
	assert.InDelta(t, 150.0, summary.TotalRevenue, 0.001)
	assert.InDelta(t, 50.0, summary.AverageOrderValue, 0.001)
	assert.Equal(t, 1, summary.StatusBreakdown[domain.OrderStatusRefunded])
	assert.Equal(t, 1, summary.ConnectedStores)
}

func TestSummarizeEmptyTenant(t *testing.T) {
	svc, _, _ := newAnalyticsFixture(t)

	summary, err := svc.Summarize(context.Background(), "tenant-without-data")
	require.NoError(t, err)
	assert.Zero(t, summary.OrderCount)
	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.AverageOrderValue)
}

func TestLowStockAlerts(t *testing.T) {
	svc, store, conn := newAnalyticsFixture(t)
	ctx := context.Background()

	products := []*domain.Product{
		{ConnectionID: conn.ID, ExternalProductID: "p1", Name: "Running low",
			InventoryCount: ptrInt64(3), LowStockThreshold: ptrInt64(5)},
		{ConnectionID: conn.ID, ExternalProductID: "p2", Name: "Well stocked",
			InventoryCount: ptrInt64(500), LowStockThreshold: ptrInt64(5)},
		{ConnectionID: conn.ID, ExternalProductID: "p3", Name: "Untracked"},
	}
	for _, p := range products {
		require.NoError(t, store.Products().Upsert(ctx, p))
	}

	alerts, err := svc.LowStockAlerts(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Running low", alerts[0].Product.Name)
	assert.Equal(t, int64(3), alerts[0].Inventory)
	assert.Equal(t, int64(5), alerts[0].Threshold)
}
