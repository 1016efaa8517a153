package application

import (
	"context"

	"storepulse-analytics-core/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes one webhook topic. Handlers are registered per
// topic and must tolerate redelivery of the same event.
type WebhookHandler interface {
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookHandlerFunc adapts a function to the WebhookHandler interface.
type WebhookHandlerFunc func(ctx context.Context, event *domain.WebhookEvent) error

func (f WebhookHandlerFunc) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	return f(ctx, event)
}

// WebhookDispatcher routes verified webhook events to topic handlers.
// Unknown topics are logged and acknowledged without effect.
type WebhookDispatcher struct {
	handlers map[string]WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		handlers: make(map[string]WebhookHandler),
		logger:   logger,
	}
}

// Register binds a handler to a topic. Registration happens at startup;
// the map is read-only afterwards.
func (d *WebhookDispatcher) Register(topic string, handler WebhookHandler) {
	d.handlers[topic] = handler
}

// Dispatch routes the event to its topic handler.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	handler, ok := d.handlers[event.Topic]
	if !ok {
		d.logger.Info().
			Str("topic", event.Topic).
			Str("shop", event.ShopDomain).
			Msg("No handler registered for webhook topic, acknowledging")
		return nil
	}
	return handler.Handle(ctx, event)
}
