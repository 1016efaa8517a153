package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storepulse-analytics-core/internal/application"
	"storepulse-analytics-core/internal/application/webhook_handlers"
	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/metrics"
	"storepulse-analytics-core/internal/infrastructure/repository"
	shopifyinfra "storepulse-analytics-core/internal/infrastructure/shopify"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	handler  http.HandlerFunc
	verifier *shopifyinfra.WebhookVerifier
	store    *repository.MemoryStore
	conn     *domain.Connection
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	conn := &domain.Connection{
		TenantID:   "tenant-1",
		Platform:   domain.PlatformShopify,
		ShopDomain: "acme.myshopify.com",
		Active:     true,
	}
	require.NoError(t, store.Connections().Create(context.Background(), conn))

	dispatcher := application.NewWebhookDispatcher(zerolog.Nop())
	dispatcher.Register(domain.TopicOrdersCreate,
		webhook_handlers.NewOrderHandler(store.Orders(), store.Connections(), zerolog.Nop()))
	dispatcher.Register(domain.TopicAppUninstalled,
		webhook_handlers.NewAppUninstalledHandler(store.Connections(), zerolog.Nop()))

	verifier := shopifyinfra.NewWebhookVerifier("hush")
	handler := webhookHandler(verifier, dispatcher, store.Connections(),
		metrics.New(prometheus.NewRegistry()), zerolog.Nop())

	return &webhookFixture{handler: handler, verifier: verifier, store: store, conn: conn}
}

func (fx *webhookFixture) deliver(topic, shop, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks", strings.NewReader(body))
	if topic != "" {
		req.Header.Set("X-Shopify-Topic", topic)
	}
	if shop != "" {
		req.Header.Set("X-Shopify-Shop-Domain", shop)
	}
	if signature != "" {
		req.Header.Set("X-Shopify-Hmac-SHA256", signature)
	}
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEndpointIngestsSignedOrder(t *testing.T) {
	fx := newWebhookFixture(t)
	ctx := context.Background()

	body := `{"id": 5001, "order_number": 77, "total_price": "49.99", "currency": "USD", "financial_status": "paid"}`
	rec := fx.deliver(domain.TopicOrdersCreate, "acme.myshopify.com", body, fx.verifier.Sign([]byte(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	orders, err := fx.store.Orders().ListByConnection(ctx, fx.conn.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "5001", orders[0].ExternalOrderID)

	updated, err := fx.store.Connections().GetByID(ctx, fx.conn.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.LastWebhookAt)
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	fx := newWebhookFixture(t)
	ctx := context.Background()

	body := `{"id": 5001, "order_number": 77, "total_price": "49.99", "currency": "USD", "financial_status": "paid"}`
	rec := fx.deliver(domain.TopicOrdersCreate, "acme.myshopify.com", body,
		shopifyinfra.NewWebhookVerifier("other-secret").Sign([]byte(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A rejected delivery mutates nothing.
	orders, err := fx.store.Orders().ListByConnection(ctx, fx.conn.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	total, err := fx.store.Connections().SumOrdersProcessed(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Zero(t, total)

	updated, err := fx.store.Connections().GetByID(ctx, fx.conn.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.LastWebhookAt)
}

func TestWebhookEndpointRequiresHeaders(t *testing.T) {
	fx := newWebhookFixture(t)

	body := `{"id": 5001}`
	signature := fx.verifier.Sign([]byte(body))

	rec := fx.deliver("", "acme.myshopify.com", body, signature)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fx.deliver(domain.TopicOrdersCreate, "", body, signature)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fx.deliver(domain.TopicOrdersCreate, "acme.myshopify.com", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookEndpointAcknowledgesHandlerFailure(t *testing.T) {
	fx := newWebhookFixture(t)
	ctx := context.Background()

	// Verified but unparseable: a retry cannot fix the payload, so the
	// platform still gets a 200.
	body := `not json at all`
	rec := fx.deliver(domain.TopicOrdersCreate, "acme.myshopify.com", body, fx.verifier.Sign([]byte(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	orders, err := fx.store.Orders().ListByConnection(ctx, fx.conn.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestWebhookEndpointAcknowledgesUnknownShop(t *testing.T) {
	fx := newWebhookFixture(t)

	body := `{"id": 5001}`
	rec := fx.deliver(domain.TopicOrdersCreate, "ghost.myshopify.com", body, fx.verifier.Sign([]byte(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookEndpointAcknowledgesUnknownTopic(t *testing.T) {
	fx := newWebhookFixture(t)

	body := `{"id": 1}`
	rec := fx.deliver("customers/create", "acme.myshopify.com", body, fx.verifier.Sign([]byte(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
