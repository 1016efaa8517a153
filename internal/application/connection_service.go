package application

import (
	"context"
	"fmt"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// ConnectionService handles connection listing, manual credential
// submission and explicit disconnects.
type ConnectionService struct {
	connRepo ports.ConnectionRepository
	subs     *SubscriptionService
	logger   zerolog.Logger
}

// NewConnectionService creates a new connection service
func NewConnectionService(
	connRepo ports.ConnectionRepository,
	subs *SubscriptionService,
	logger zerolog.Logger,
) *ConnectionService {
	return &ConnectionService{
		connRepo: connRepo,
		subs:     subs,
		logger:   logger,
	}
}

// CreateManualInput is the payload for connecting a store with static
// credentials instead of OAuth (Magento, or legacy Shopify private apps).
type CreateManualInput struct {
	Platform   domain.Platform `json:"platform"`
	ShopDomain string          `json:"shop_domain"`
	ShopName   string          `json:"shop_name"`
	APIKey     string          `json:"api_key"`
	APISecret  string          `json:"api_secret"`
}

// CreateManual connects a store using a static API key/secret pair. The same
// uniqueness and merge rules as the OAuth flow apply.
func (s *ConnectionService) CreateManual(ctx context.Context, tenantID string, input CreateManualInput) (*domain.Connection, error) {
	if input.ShopDomain == "" || input.APIKey == "" {
		return nil, fmt.Errorf("%w: shop_domain and api_key are required", domain.ErrInvalidRequest)
	}
	if input.Platform != domain.PlatformShopify && input.Platform != domain.PlatformMagento {
		return nil, fmt.Errorf("%w: unsupported platform %q", domain.ErrInvalidRequest, input.Platform)
	}

	tier, err := s.subs.EffectiveTier(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tier: %w", err)
	}
	count, err := s.connRepo.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count connections: %w", err)
	}

	existing, err := s.connRepo.GetByShopDomain(ctx, input.ShopDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to look up connection: %w", err)
	}
	if existing != nil {
		if existing.TenantID != tenantID {
			return nil, domain.ErrShopAlreadyConnected
		}
		existing.APIKey = input.APIKey
		existing.APISecret = input.APISecret
		existing.ShopName = input.ShopName
		existing.Active = true
		if err := s.connRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update connection: %w", err)
		}
		return existing, nil
	}

	if count >= tier.MaxStores {
		return nil, &domain.QuotaExceededError{
			Resource: "stores",
			Limit:    int64(tier.MaxStores),
			Usage:    int64(count),
		}
	}

	conn := &domain.Connection{
		TenantID:   tenantID,
		Platform:   input.Platform,
		ShopDomain: input.ShopDomain,
		ShopName:   input.ShopName,
		APIKey:     input.APIKey,
		APISecret:  input.APISecret,
		Active:     true,
	}
	if err := s.connRepo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.logger.Info().
		Str("tenantId", tenantID).
		Str("platform", string(input.Platform)).
		Str("shop", input.ShopDomain).
		Msg("Connected store with manual credentials")

	return conn, nil
}

// List returns a tenant's connections.
func (s *ConnectionService) List(ctx context.Context, tenantID string) ([]*domain.Connection, error) {
	return s.connRepo.ListByTenant(ctx, tenantID)
}

// Get returns one of the tenant's connections; other tenants' connections
// are invisible.
func (s *ConnectionService) Get(ctx context.Context, tenantID string, id string) (*domain.Connection, error) {
	conn, err := s.connRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.TenantID != tenantID {
		return nil, domain.ErrConnectionNotFound
	}
	return conn, nil
}

// Delete hard-deletes a connection on explicit tenant request. Platform
// uninstalls only soft-delete; this is the tenant-initiated path.
func (s *ConnectionService) Delete(ctx context.Context, tenantID string, id string) error {
	conn, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.connRepo.Delete(ctx, conn.ID); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	s.logger.Info().
		Str("tenantId", tenantID).
		Str("shop", conn.ShopDomain).
		Msg("Deleted connection")
	return nil
}
