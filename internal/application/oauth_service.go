package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

const stateTTL = 10 * time.Minute

// DefaultScopes are the access scopes requested during authorization.
var DefaultScopes = []string{"read_products", "read_orders"}

// OAuthService drives the authorization-code handshake against Shopify and
// materializes Connection records from completed flows.
//
// Pending states live in a single-use TTL store keyed by nonce; the handshake
// never touches ambient session state.
type OAuthService struct {
	connRepo    ports.ConnectionRepository
	stateStore  ports.StateStore
	oauthClient ports.OAuthClient
	subs        *SubscriptionService
	redirectURI string
	logger      zerolog.Logger
}

// NewOAuthService creates a new OAuth coordinator.
func NewOAuthService(
	connRepo ports.ConnectionRepository,
	stateStore ports.StateStore,
	oauthClient ports.OAuthClient,
	subs *SubscriptionService,
	redirectURI string,
	logger zerolog.Logger,
) *OAuthService {
	return &OAuthService{
		connRepo:    connRepo,
		stateStore:  stateStore,
		oauthClient: oauthClient,
		subs:        subs,
		redirectURI: redirectURI,
		logger:      logger,
	}
}

// Begin starts an authorization attempt and returns the platform-hosted
// authorization URL. No Connection is created or modified here.
func (s *OAuthService) Begin(ctx context.Context, tenantID string, shop string) (string, error) {
	if shop == "" {
		return "", fmt.Errorf("%w: shop parameter is required", domain.ErrInvalidRequest)
	}

	tier, err := s.subs.EffectiveTier(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve tier: %w", err)
	}
	count, err := s.connRepo.CountByTenant(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to count connections: %w", err)
	}
	if count >= tier.MaxStores {
		return "", &domain.QuotaExceededError{
			Resource: "stores",
			Limit:    int64(tier.MaxStores),
			Usage:    int64(count),
		}
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := hex.EncodeToString(stateBytes)

	if err := s.stateStore.Put(ctx, &domain.OAuthState{
		State:    state,
		Shop:     shop,
		TenantID: tenantID,
	}, stateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	authURL := s.oauthClient.AuthorizeURL(shop, DefaultScopes, s.redirectURI, state)

	s.logger.Info().
		Str("tenantId", tenantID).
		Str("shop", shop).
		Msg("Started OAuth flow")

	return authURL, nil
}

// Complete finishes an authorization attempt: validates the callback against
// the stored state, exchanges the code for a token, and creates or updates
// the Connection.
//
// Any state or shop mismatch rejects the whole flow; the tenant must restart.
func (s *OAuthService) Complete(ctx context.Context, state string, shop string, code string) (*domain.Connection, error) {
	pending, err := s.stateStore.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	if pending == nil || pending.Shop != shop {
		return nil, domain.ErrOAuthStateMismatch
	}

	token, scope, err := s.oauthClient.ExchangeToken(ctx, shop, code, s.redirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	info, err := s.oauthClient.GetShopInfoWithToken(ctx, shop, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop info: %w", err)
	}

	now := time.Now()
	existing, err := s.connRepo.GetByShopDomain(ctx, info.Domain)
	if err != nil {
		return nil, fmt.Errorf("failed to look up connection: %w", err)
	}

	if existing != nil {
		if existing.TenantID != pending.TenantID {
			return nil, domain.ErrShopAlreadyConnected
		}

		// Idempotent reconnect for the owning tenant: refresh credentials
		// in place, never duplicate the row.
		existing.AccessToken = token
		existing.Scope = scope
		existing.ShopName = info.Name
		existing.Active = true
		existing.LastSyncAt = &now
		if err := s.connRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update connection: %w", err)
		}

		s.logger.Info().
			Str("tenantId", pending.TenantID).
			Str("shop", info.Domain).
			Msg("Reconnected existing shop")
		return existing, nil
	}

	conn := &domain.Connection{
		TenantID:    pending.TenantID,
		Platform:    domain.PlatformShopify,
		ShopDomain:  info.Domain,
		ShopName:    info.Name,
		AccessToken: token,
		Scope:       scope,
		Active:      true,
		LastSyncAt:  &now,
	}
	if err := s.connRepo.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.logger.Info().
		Str("tenantId", pending.TenantID).
		Str("shop", info.Domain).
		Msg("Connected new shop")

	return conn, nil
}
