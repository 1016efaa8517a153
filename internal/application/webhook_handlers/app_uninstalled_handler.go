package webhook_handlers

import (
	"context"
	"fmt"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app/uninstalled webhook events.
type AppUninstalledHandler struct {
	connRepo ports.ConnectionRepository
	logger   zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(connRepo ports.ConnectionRepository, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		connRepo: connRepo,
		logger:   logger,
	}
}

// Handle soft-deletes the connection (active=false). Order and product rows
// stay untouched; hard deletion happens only on explicit tenant request.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if err := h.connRepo.Deactivate(ctx, event.ShopDomain); err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}

	h.logger.Info().
		Str("shop", event.ShopDomain).
		Msg("Deactivated connection after app uninstall")

	return nil
}
