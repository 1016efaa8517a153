package statestore

import (
	"context"
	"testing"
	"time"

	"storepulse-analytics-core/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeIsSingleUse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.OAuthState{
		State:    "nonce-1",
		Shop:     "acme.myshopify.com",
		TenantID: "tenant-1",
	}, 10*time.Minute))

	got, err := store.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme.myshopify.com", got.Shop)
	assert.Equal(t, "tenant-1", got.TenantID)

	again, err := store.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestConsumeUnknownNonce(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Consume(context.Background(), "never-stored")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConsumeExpiredState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	require.NoError(t, store.Put(ctx, &domain.OAuthState{State: "nonce-1", Shop: "acme.myshopify.com"}, 10*time.Minute))

	store.now = func() time.Time { return base.Add(11 * time.Minute) }
	got, err := store.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
