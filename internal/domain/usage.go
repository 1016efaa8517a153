package domain

import "time"

// UsageRecord captures one inbound HTTP request from an authenticated tenant.
// Records are append-only; retention is enforced separately via pruning.
type UsageRecord struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenant_id"`
	ConnectionID string        `json:"connection_id,omitempty"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	Latency      time.Duration `json:"latency"`
	ClientIP     string        `json:"client_ip"`
	UserAgent    string        `json:"user_agent"`
	CreatedAt    time.Time     `json:"created_at"`
}
