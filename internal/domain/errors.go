package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks missing or malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOAuthStateMismatch marks a callback whose state or shop does not
	// match the stored authorization attempt. The flow must be restarted.
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")

	// ErrShopAlreadyConnected marks a shop already bound to another tenant.
	ErrShopAlreadyConnected = errors.New("shop already connected to another tenant")

	// ErrSignatureInvalid marks a webhook whose HMAC does not match the body.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrMissingHeaders marks a webhook without topic or shop-domain headers.
	ErrMissingHeaders = errors.New("missing webhook headers")

	// ErrTierNotFound marks a subscription pointing at a missing tier.
	// This is a data-integrity problem, not a user error.
	ErrTierNotFound = errors.New("subscription tier not found")

	ErrConnectionNotFound = errors.New("connection not found")

	// ErrSubscriptionNotFound marks an update against a subscription that
	// no longer exists.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// QuotaExceededError is returned when a tenant is over a subscription
// ceiling. Limit and Usage are surfaced so the caller can render an
// upgrade prompt.
type QuotaExceededError struct {
	Resource string
	Limit    int64
	Usage    int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: usage %d, limit %d", e.Resource, e.Usage, e.Limit)
}

// IsQuotaExceeded reports whether err is a QuotaExceededError.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
