package application

import (
	"context"
	"errors"
	"testing"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/repository"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatformClient struct {
	orders   []*domain.Order
	products []*domain.Product
	err      error
}

func (f *fakePlatformClient) GetShopInfo(_ context.Context, conn *domain.Connection) (*domain.ShopInfo, error) {
	return &domain.ShopInfo{Domain: conn.ShopDomain, Name: conn.ShopName}, nil
}

func (f *fakePlatformClient) ListOrders(context.Context, *domain.Connection) ([]*domain.Order, error) {
	return f.orders, f.err
}

func (f *fakePlatformClient) ListProducts(context.Context, *domain.Connection) ([]*domain.Product, error) {
	return f.products, f.err
}

func newSyncFixture(t *testing.T, client ports.PlatformClient) (*SyncService, *repository.MemoryStore, *domain.Connection) {
	t.Helper()

	store := repository.NewMemoryStore()
	conn := &domain.Connection{
		TenantID:   "tenant-1",
		Platform:   domain.PlatformShopify,
		ShopDomain: "acme.myshopify.com",
		Active:     true,
	}
	require.NoError(t, store.Connections().Create(context.Background(), conn))

	svc := NewSyncService(
		store.Connections(),
		store.Orders(),
		store.Products(),
		map[domain.Platform]ports.PlatformClient{domain.PlatformShopify: client},
		zerolog.Nop(),
	)
	return svc, store, conn
}

func TestSyncSkipsAlreadyIngestedOrders(t *testing.T) {
	client := &fakePlatformClient{
		orders: []*domain.Order{
			{ExternalOrderID: "1001", TotalAmount: 10, Status: domain.OrderStatusCompleted},
			{ExternalOrderID: "1002", TotalAmount: 20, Status: domain.OrderStatusCompleted},
			{ExternalOrderID: "1003", TotalAmount: 30, Status: domain.OrderStatusPending},
		},
		products: []*domain.Product{
			{ExternalProductID: "p1", Name: "Widget"},
		},
	}
	svc, store, conn := newSyncFixture(t, client)
	ctx := context.Background()

	for _, o := range client.orders {
		o.ConnectionID = conn.ID
	}
	for _, p := range client.products {
		p.ConnectionID = conn.ID
	}

	// One of the three was already delivered by webhook.
	_, err := store.Orders().Upsert(ctx, &domain.Order{ConnectionID: conn.ID, ExternalOrderID: "1002"})
	require.NoError(t, err)
	require.NoError(t, store.Connections().IncrementOrdersProcessed(ctx, conn.ID, 1))

	result, err := svc.Sync(ctx, "tenant-1", conn.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.OrdersFetched)
	assert.Equal(t, 2, result.OrdersInserted)
	assert.Equal(t, 1, result.ProductsFetched)

	total, err := store.Connections().SumOrdersProcessed(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	updated, err := store.Connections().GetByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastSyncAt)
}

func TestSyncCounterSurvivesSyncStamp(t *testing.T) {
	client := &fakePlatformClient{
		orders: []*domain.Order{
			{ExternalOrderID: "2001", TotalAmount: 10, Status: domain.OrderStatusCompleted},
			{ExternalOrderID: "2002", TotalAmount: 20, Status: domain.OrderStatusCompleted},
		},
	}
	svc, store, conn := newSyncFixture(t, client)
	ctx := context.Background()
	for _, o := range client.orders {
		o.ConnectionID = conn.ID
	}

	_, err := svc.Sync(ctx, "tenant-1", conn.ID)
	require.NoError(t, err)

	// Stamping LastSyncAt at the end of the run must not write back the
	// connection snapshot read before the counter increment.
	total, err := store.Connections().SumOrdersProcessed(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	updated, err := store.Connections().GetByID(ctx, conn.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastSyncAt)
	assert.Equal(t, int64(2), updated.TotalOrdersProcessed)
}

func TestSyncIsTenantScoped(t *testing.T) {
	svc, _, conn := newSyncFixture(t, &fakePlatformClient{})

	_, err := svc.Sync(context.Background(), "tenant-b", conn.ID)
	require.ErrorIs(t, err, domain.ErrConnectionNotFound)
}

func TestSyncPlatformFailure(t *testing.T) {
	client := &fakePlatformClient{err: errors.New("rate limited")}
	svc, store, conn := newSyncFixture(t, client)
	ctx := context.Background()

	_, err := svc.Sync(ctx, "tenant-1", conn.ID)
	require.Error(t, err)

	// A failed pull leaves the counter alone.
	total, err := store.Connections().SumOrdersProcessed(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSyncUnknownPlatform(t *testing.T) {
	store := repository.NewMemoryStore()
	conn := &domain.Connection{TenantID: "tenant-1", Platform: domain.PlatformMagento, ShopDomain: "shop.example.com"}
	require.NoError(t, store.Connections().Create(context.Background(), conn))

	svc := NewSyncService(store.Connections(), store.Orders(), store.Products(),
		map[domain.Platform]ports.PlatformClient{}, zerolog.Nop())

	_, err := svc.Sync(context.Background(), "tenant-1", conn.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no client registered")
}
