package domain

import "context"

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const tenantIDKey contextKey = "tenant_id"

// WithTenantID returns a context carrying the authenticated tenant id.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantIDFromContext returns the tenant id set by the auth middleware,
// or "" when the request is unauthenticated.
func GetTenantIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}
