package ports

import (
	"context"

	"storepulse-analytics-core/internal/domain"
)

// PlatformClient is a stateless adapter over one external store platform's
// API. Implementations translate platform-native payloads into local order
// and product shapes.
type PlatformClient interface {
	GetShopInfo(ctx context.Context, conn *domain.Connection) (*domain.ShopInfo, error)
	ListOrders(ctx context.Context, conn *domain.Connection) ([]*domain.Order, error)
	ListProducts(ctx context.Context, conn *domain.Connection) ([]*domain.Product, error)
}

// OAuthClient drives the authorization-code handshake against a platform
// that supports it (Shopify).
type OAuthClient interface {
	// AuthorizeURL returns the platform-hosted authorization URL embedding
	// the CSRF state token.
	AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string
	// ExchangeToken swaps an authorization code for an access token and the
	// granted scope. Single server-to-server call, no retries.
	ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (token string, scope string, err error)
	// GetShopInfoWithToken fetches the shop's canonical identity using a
	// freshly issued token, before any Connection exists.
	GetShopInfoWithToken(ctx context.Context, shop string, token string) (*domain.ShopInfo, error)
}
