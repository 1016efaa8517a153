package application

import (
	"context"
	"errors"
	"testing"

	"storepulse-analytics-core/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByTopic(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())

	var handled string
	d.Register(domain.TopicOrdersCreate, WebhookHandlerFunc(func(_ context.Context, event *domain.WebhookEvent) error {
		handled = event.Topic
		return nil
	}))

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicOrdersCreate})
	require.NoError(t, err)
	assert.Equal(t, domain.TopicOrdersCreate, handled)
}

func TestDispatcherAcknowledgesUnknownTopic(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "customers/create"})
	assert.NoError(t, err)
}

func TestDispatcherPropagatesHandlerErrors(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())

	boom := errors.New("handler failed")
	d.Register(domain.TopicProductsUpdate, WebhookHandlerFunc(func(context.Context, *domain.WebhookEvent) error {
		return boom
	}))

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: domain.TopicProductsUpdate})
	require.ErrorIs(t, err, boom)
}
