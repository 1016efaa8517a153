package domain

import "time"

// Platform identifies the external store platform a connection talks to.
type Platform string

const (
	PlatformShopify Platform = "shopify"
	PlatformMagento Platform = "magento"
)

// Connection binds a tenant to one external store. A shop domain is connected
// by at most one tenant at a time; reconnecting the same tenant to the same
// shop updates the existing record.
//
// Exactly one credential mode is populated: AccessToken/Scope for OAuth
// connections, APIKey/APISecret for manually configured ones.
type Connection struct {
	ID         string   `json:"id"`
	TenantID   string   `json:"tenant_id"`
	Platform   Platform `json:"platform"`
	ShopDomain string   `json:"shop_domain"`
	ShopName   string   `json:"shop_name"`

	AccessToken string `json:"-"`
	Scope       string `json:"scope,omitempty"`
	APIKey      string `json:"-"`
	APISecret   string `json:"-"`

	Active               bool       `json:"active"`
	LastSyncAt           *time.Time `json:"last_sync_at,omitempty"`
	LastWebhookAt        *time.Time `json:"last_webhook_at,omitempty"`
	TotalAPIRequests     int64      `json:"total_api_requests"`
	TotalOrdersProcessed int64      `json:"total_orders_processed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShopInfo is the canonical shop identity reported by the platform.
type ShopInfo struct {
	Domain string
	Name   string
}
