package middleware

import (
	"encoding/json"
	"net/http"

	"storepulse-analytics-core/internal/domain"

	"github.com/rs/zerolog"
)

// TenantAuth extracts the authenticated tenant from the X-Tenant-ID header
// and stores it in the request context. Requests without it are rejected;
// the public routes (health, metrics, docs, OAuth, webhooks) are mounted
// outside this middleware.
func TenantAuth(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get("X-Tenant-ID")
			if tenantID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "X-Tenant-ID header is required",
				})
				return
			}

			ctx := domain.WithTenantID(r.Context(), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
