package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/metrics"
	"storepulse-analytics-core/internal/infrastructure/repository"
	"storepulse-analytics-core/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiterStore(t *testing.T) *repository.MemoryStore {
	t.Helper()

	store := repository.NewMemoryStore()
	require.NoError(t, store.Tiers().Save(context.Background(), &domain.SubscriptionTier{
		ID:        "starter",
		Name:      "Starter",
		MaxOrders: 100,
		MaxStores: 2,
		Active:    true,
	}))
	return store
}

func subscribe(t *testing.T, store *repository.MemoryStore, tenantID, tierID string) {
	t.Helper()
	require.NoError(t, store.Subscriptions().Create(context.Background(), &domain.UserSubscription{
		TenantID: tenantID,
		TierID:   tierID,
		StartsAt: time.Now(),
		EndsAt:   time.Now().Add(30 * 24 * time.Hour),
		Active:   true,
	}))
}

func addProcessedOrders(t *testing.T, store *repository.MemoryStore, tenantID, shop string, processed int64) {
	t.Helper()
	ctx := context.Background()
	conn := &domain.Connection{TenantID: tenantID, Platform: domain.PlatformShopify, ShopDomain: shop, Active: true}
	require.NoError(t, store.Connections().Create(ctx, conn))
	require.NoError(t, store.Connections().IncrementOrdersProcessed(ctx, conn.ID, processed))
}

func limiterRequest(t *testing.T, limiter *PlanLimiter, tenantID, path string) *httptest.ResponseRecorder {
	t.Helper()

	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(domain.WithTenantID(req.Context(), tenantID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func newLimiter(store *repository.MemoryStore) *PlanLimiter {
	m := metrics.New(prometheus.NewRegistry())
	return NewPlanLimiter(store.Subscriptions(), store.Tiers(), store.Connections(), m, zerolog.Nop())
}

func TestLimiterAllowsWithinQuota(t *testing.T) {
	store := newLimiterStore(t)
	subscribe(t, store, "tenant-1", "starter")
	addProcessedOrders(t, store, "tenant-1", "a.myshopify.com", 99)

	rec := limiterRequest(t, newLimiter(store), "tenant-1", "/api/v1/orders")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiterRejectsOverQuotaAcrossConnections(t *testing.T) {
	store := newLimiterStore(t)
	subscribe(t, store, "tenant-1", "starter")
	// Usage is summed across every connection of the tenant.
	addProcessedOrders(t, store, "tenant-1", "a.myshopify.com", 60)
	addProcessedOrders(t, store, "tenant-1", "b.myshopify.com", 50)

	rec := limiterRequest(t, newLimiter(store), "tenant-1", "/api/v1/orders")
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body struct {
		Error string `json:"error"`
		Limit int64  `json:"limit"`
		Usage int64  `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "quota_exceeded", body.Error)
	assert.Equal(t, int64(100), body.Limit)
	assert.Equal(t, int64(110), body.Usage)
}

func TestLimiterAllowsUsageAtExactLimit(t *testing.T) {
	store := newLimiterStore(t)
	subscribe(t, store, "tenant-1", "starter")
	addProcessedOrders(t, store, "tenant-1", "a.myshopify.com", 100)

	rec := limiterRequest(t, newLimiter(store), "tenant-1", "/api/v1/orders")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiterExemptPaths(t *testing.T) {
	store := newLimiterStore(t)
	subscribe(t, store, "tenant-1", "starter")
	addProcessedOrders(t, store, "tenant-1", "a.myshopify.com", 10000)

	limiter := newLimiter(store)
	for _, path := range []string{"/api/v1/subscription", "/api/v1/subscription/cancel", "/api/v1/me", "/auth/logout"} {
		rec := limiterRequest(t, limiter, "tenant-1", path)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s should stay reachable over quota", path)
	}
}

func TestLimiterAllowsTenantsWithoutSubscription(t *testing.T) {
	store := newLimiterStore(t)
	addProcessedOrders(t, store, "tenant-1", "a.myshopify.com", 10000)

	rec := limiterRequest(t, newLimiter(store), "tenant-1", "/api/v1/orders")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimiterFailsClosedOnMissingTier(t *testing.T) {
	store := newLimiterStore(t)
	subscribe(t, store, "tenant-1", "retired-tier")

	rec := limiterRequest(t, newLimiter(store), "tenant-1", "/api/v1/orders")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingSubRepo struct{ ports.SubscriptionRepository }

func (failingSubRepo) GetActiveByTenant(context.Context, string) (*domain.UserSubscription, error) {
	return nil, context.DeadlineExceeded
}

func TestLimiterAllowsOnEvaluationError(t *testing.T) {
	store := newLimiterStore(t)
	m := metrics.New(prometheus.NewRegistry())
	limiter := NewPlanLimiter(failingSubRepo{}, store.Tiers(), store.Connections(), m, zerolog.Nop())

	rec := limiterRequest(t, limiter, "tenant-1", "/api/v1/orders")
	assert.Equal(t, http.StatusOK, rec.Code)
}
