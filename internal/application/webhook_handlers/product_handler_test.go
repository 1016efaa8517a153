package webhook_handlers

import (
	"context"
	"testing"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productEvent(conn *domain.Connection, payload string) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		Topic:        domain.TopicProductsUpdate,
		ShopDomain:   conn.ShopDomain,
		ConnectionID: conn.ID,
		TenantID:     conn.TenantID,
		Payload:      []byte(payload),
	}
}

func TestProductHandlerInsertThenUpdate(t *testing.T) {
	store := repository.NewMemoryStore()
	conn := newConnection(t, store)
	h := NewProductHandler(store.Products(), zerolog.Nop())
	ctx := context.Background()

	first := `{
		"id": 788032119674292922,
		"title": "Example T-Shirt",
		"variants": [{"sku": "TS-001", "price": "19.99", "inventory_quantity": 75}]
	}`
	require.NoError(t, h.Handle(ctx, productEvent(conn, first)))

	update := `{
		"id": 788032119674292922,
		"title": "Example T-Shirt (v2)",
		"variants": [{"sku": "TS-001", "price": "24.99", "inventory_quantity": 40}]
	}`
	require.NoError(t, h.Handle(ctx, productEvent(conn, update)))

	products, err := store.Products().ListByConnection(ctx, conn.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Example T-Shirt (v2)", products[0].Name)
	assert.InDelta(t, 24.99, products[0].Price, 0.001)
	require.NotNil(t, products[0].InventoryCount)
	assert.Equal(t, int64(40), *products[0].InventoryCount)
}

func TestProductHandlerWithoutVariants(t *testing.T) {
	store := repository.NewMemoryStore()
	conn := newConnection(t, store)
	h := NewProductHandler(store.Products(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, h.Handle(ctx, productEvent(conn, `{"id": 99, "title": "Service item"}`)))

	products, err := store.Products().ListByConnection(ctx, conn.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Service item", products[0].Name)
	assert.Nil(t, products[0].InventoryCount)
}

func TestProductHandlerRejectsMissingID(t *testing.T) {
	store := repository.NewMemoryStore()
	conn := newConnection(t, store)
	h := NewProductHandler(store.Products(), zerolog.Nop())

	require.Error(t, h.Handle(context.Background(), productEvent(conn, `{"title": "no id"}`)))
}
