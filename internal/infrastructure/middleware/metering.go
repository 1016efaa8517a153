package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/metrics"
	"storepulse-analytics-core/internal/ports"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	meteringTimeout = 5 * time.Second

	// maxMeteredBody caps how much of a JSON body is buffered when looking
	// for a connection id.
	maxMeteredBody = 1 << 20
)

// Metering records one UsageRecord per authenticated request after the
// response is finalized. The write is fire-and-forget: it runs in its own
// goroutine with a detached context, and a metering failure never fails or
// delays the original request.
type Metering struct {
	usageRepo ports.UsageRepository
	connRepo  ports.ConnectionRepository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewMetering creates the usage metering middleware.
func NewMetering(
	usageRepo ports.UsageRepository,
	connRepo ports.ConnectionRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Metering {
	return &Metering{
		usageRepo: usageRepo,
		connRepo:  connRepo,
		metrics:   m,
		logger:    logger,
	}
}

// Handler wraps the next handler with metering.
func (mw *Metering) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		// Resolve the connection before the handler consumes the body.
		connectionID := extractConnectionID(r)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		tenantID := domain.GetTenantIDFromContext(r.Context())
		if tenantID == "" {
			return
		}

		record := &domain.UsageRecord{
			TenantID:     tenantID,
			ConnectionID: connectionID,
			Path:         r.URL.Path,
			Method:       r.Method,
			StatusCode:   ww.Status(),
			Latency:      elapsed,
			ClientIP:     r.RemoteAddr,
			UserAgent:    r.UserAgent(),
			CreatedAt:    time.Now(),
		}

		mw.metrics.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(ww.Status())).Inc()
		mw.metrics.RequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed.Seconds())

		go mw.persist(record)
	})
}

// extractConnectionID pulls the connection id from the query string or,
// failing that, from a JSON request body. The body is restored so the
// downstream handler can still read it.
func extractConnectionID(r *http.Request) string {
	if id := r.URL.Query().Get("connection_id"); id != "" {
		return id
	}
	if r.Body == nil || !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMeteredBody))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		ConnectionID string `json:"connection_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.ConnectionID
}

// persist writes the record and bumps the connection's API-request counter,
// detached from the request lifecycle.
func (mw *Metering) persist(record *domain.UsageRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), meteringTimeout)
	defer cancel()

	if err := mw.usageRepo.Insert(ctx, record); err != nil {
		mw.metrics.MeteringFailures.Inc()
		mw.logger.Warn().Err(err).
			Str("tenantId", record.TenantID).
			Str("path", record.Path).
			Msg("Failed to persist usage record")
	}

	if record.ConnectionID == "" {
		return
	}
	// Best effort, not required to be atomic with the usage insert.
	if err := mw.connRepo.IncrementAPIRequests(ctx, record.ConnectionID, 1); err != nil {
		mw.logger.Warn().Err(err).
			Str("connectionId", record.ConnectionID).
			Msg("Failed to increment connection API counter")
	}
}
