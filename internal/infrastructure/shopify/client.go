package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

type client struct {
	apiKey    string
	apiSecret string
	app       goshopify.App
	logger    zerolog.Logger
}

// Client combines the OAuth handshake and the data-pull surface for Shopify.
type Client interface {
	ports.OAuthClient
	ports.PlatformClient
}

// NewClient creates a new Shopify client adapter.
func NewClient(apiKey, apiSecret string, logger zerolog.Logger) Client {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		app:       app,
		logger:    logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	gc, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return gc, nil
}

// AuthorizeURL builds the shop-hosted authorization URL. The go-shopify
// library's AuthorizeUrl doesn't accept redirect_uri directly, so the URL is
// constructed by hand. Shopify expects scopes comma-separated, no spaces.
func (c *client) AuthorizeURL(shop string, scopes []string, redirectURI string, state string) string {
	scopesStr := strings.Join(scopes, ",")
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		c.apiKey,
		url.QueryEscape(scopesStr),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)
}

// ExchangeToken swaps the authorization code for an access token. Shopify
// requires redirect_uri to match the one used in authorization, and the
// go-shopify library's GetAccessToken doesn't expose it, so this is a direct
// HTTP call to the token endpoint.
func (c *client) ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (string, string, error) {
	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)

	values := url.Values{}
	values.Set("client_id", c.apiKey)
	values.Set("client_secret", c.apiSecret)
	values.Set("code", code)
	if redirectURI != "" {
		values.Set("redirect_uri", redirectURI)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("failed to exchange token: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", "", fmt.Errorf("failed to decode token response: %w", err)
	}

	return tokenResponse.AccessToken, tokenResponse.Scope, nil
}

// GetShopInfoWithToken fetches the shop's canonical identity with a freshly
// issued token, before a Connection record exists for it.
func (c *client) GetShopInfoWithToken(ctx context.Context, shop string, token string) (*domain.ShopInfo, error) {
	gc, err := c.createClient(shop, token)
	if err != nil {
		return nil, err
	}
	info, err := gc.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &domain.ShopInfo{Domain: info.MyshopifyDomain, Name: info.Name}, nil
}

func (c *client) GetShopInfo(ctx context.Context, conn *domain.Connection) (*domain.ShopInfo, error) {
	return c.GetShopInfoWithToken(ctx, conn.ShopDomain, conn.AccessToken)
}

// ListOrders pulls the shop's orders and translates them into local shape.
func (c *client) ListOrders(ctx context.Context, conn *domain.Connection) ([]*domain.Order, error) {
	gc, err := c.createClient(conn.ShopDomain, conn.AccessToken)
	if err != nil {
		return nil, err
	}
	orders, err := gc.Order.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]*domain.Order, 0, len(orders))
	for i := range orders {
		result = append(result, translateOrder(conn.ID, &orders[i]))
	}
	return result, nil
}

// ListProducts pulls the shop's products and translates them into local shape.
func (c *client) ListProducts(ctx context.Context, conn *domain.Connection) ([]*domain.Product, error) {
	gc, err := c.createClient(conn.ShopDomain, conn.AccessToken)
	if err != nil {
		return nil, err
	}
	products, err := gc.Product.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := make([]*domain.Product, 0, len(products))
	for i := range products {
		result = append(result, translateProduct(conn.ID, &products[i]))
	}
	return result, nil
}

func translateOrder(connectionID string, o *goshopify.Order) *domain.Order {
	total := 0.0
	if o.TotalPrice != nil {
		total, _ = o.TotalPrice.Float64()
	}
	customerID := ""
	if o.Customer != nil {
		customerID = strconv.FormatUint(o.Customer.Id, 10)
	}
	order := &domain.Order{
		ConnectionID:       connectionID,
		ExternalOrderID:    strconv.FormatUint(o.Id, 10),
		ExternalCustomerID: customerID,
		OrderNumber:        strconv.Itoa(o.OrderNumber),
		TotalAmount:        total,
		Currency:           o.Currency,
		Status:             domain.OrderStatusFromFinancial(string(o.FinancialStatus)),
	}
	if o.CreatedAt != nil {
		order.PlacedAt = *o.CreatedAt
	}
	return order
}

func translateProduct(connectionID string, p *goshopify.Product) *domain.Product {
	product := &domain.Product{
		ConnectionID:      connectionID,
		ExternalProductID: strconv.FormatUint(p.Id, 10),
		Name:              p.Title,
	}
	// Price, SKU and inventory live on the first variant for simple products.
	if len(p.Variants) > 0 {
		v := p.Variants[0]
		if v.Price != nil {
			product.Price, _ = v.Price.Float64()
		}
		product.SKU = v.Sku
		qty := int64(v.InventoryQuantity)
		product.InventoryCount = &qty
	}
	return product
}
