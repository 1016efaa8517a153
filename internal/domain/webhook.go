package domain

import "encoding/json"

// Webhook topics handled by the receiver. Anything else is acknowledged
// without effect.
const (
	TopicOrdersCreate   = "orders/create"
	TopicProductsUpdate = "products/update"
	TopicAppUninstalled = "app/uninstalled"
)

// WebhookEvent is a verified inbound platform notification. Payload is the
// raw request body; its shape depends on Topic and is owned by the platform.
type WebhookEvent struct {
	Topic        string          `json:"topic"`
	ShopDomain   string          `json:"shop_domain"`
	ConnectionID string          `json:"connection_id"`
	TenantID     string          `json:"tenant_id"`
	Payload      json.RawMessage `json:"payload"`
}
