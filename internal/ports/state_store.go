package ports

import (
	"context"
	"time"

	"storepulse-analytics-core/internal/domain"
)

// StateStore holds pending OAuth states keyed by nonce. Entries are
// short-lived and single-use: Consume removes the entry whether or not the
// caller ultimately accepts it, so a state can never be replayed.
type StateStore interface {
	Put(ctx context.Context, state *domain.OAuthState, ttl time.Duration) error
	// Consume returns the stored state and removes it. Returns nil, nil when
	// the nonce is unknown or expired.
	Consume(ctx context.Context, nonce string) (*domain.OAuthState, error)
}
