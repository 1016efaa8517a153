package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/metrics"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// AllowOnError is the limiter's failure policy: any internal error while
// evaluating the gate lets the request through.
const AllowOnError = true

// ExemptPrefixes lists paths that stay reachable regardless of quota state,
// so a tenant over quota can still inspect or cancel their subscription.
var ExemptPrefixes = []string{
	"/api/v1/subscription",
	"/api/v1/me",
	"/auth/logout",
}

// PlanLimiter gates business routes on the tenant's order-volume quota.
type PlanLimiter struct {
	subRepo  ports.SubscriptionRepository
	tierRepo ports.TierRepository
	connRepo ports.ConnectionRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewPlanLimiter creates the quota enforcement middleware.
func NewPlanLimiter(
	subRepo ports.SubscriptionRepository,
	tierRepo ports.TierRepository,
	connRepo ports.ConnectionRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *PlanLimiter {
	return &PlanLimiter{
		subRepo:  subRepo,
		tierRepo: tierRepo,
		connRepo: connRepo,
		metrics:  m,
		logger:   logger,
	}
}

// Handler wraps the next handler with quota enforcement.
func (pl *PlanLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range ExemptPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ctx := r.Context()
		tenantID := domain.GetTenantIDFromContext(ctx)

		sub, err := pl.subRepo.GetActiveByTenant(ctx, tenantID)
		if err != nil {
			pl.allowOnError(w, r, next, err)
			return
		}
		if sub == nil {
			// No subscription yet: implicit free tier, unmetered.
			next.ServeHTTP(w, r)
			return
		}

		tier, err := pl.tierRepo.GetByID(ctx, sub.TierID)
		if errors.Is(err, domain.ErrTierNotFound) {
			// A subscription pointing at a missing tier is a data-integrity
			// problem; fail closed rather than guessing a ceiling.
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": "subscription tier not found",
			})
			return
		}
		if err != nil {
			pl.allowOnError(w, r, next, err)
			return
		}

		usage, err := pl.connRepo.SumOrdersProcessed(ctx, tenantID)
		if err != nil {
			pl.allowOnError(w, r, next, err)
			return
		}

		if usage > tier.MaxOrders {
			pl.metrics.QuotaRejections.Inc()
			writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
				"error": "quota_exceeded",
				"limit": tier.MaxOrders,
				"usage": usage,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (pl *PlanLimiter) allowOnError(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	if !AllowOnError {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to evaluate quota",
		})
		return
	}
	pl.logger.Error().Err(err).
		Str("path", r.URL.Path).
		Msg("Plan limiter evaluation failed, allowing request")
	next.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
