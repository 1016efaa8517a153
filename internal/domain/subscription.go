package domain

import "time"

// SubscriptionTier is a static catalogue entry describing a pricing plan.
type SubscriptionTier struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MaxOrders    int64    `json:"max_orders"`
	MaxStores    int      `json:"max_stores"`
	MonthlyPrice float64  `json:"monthly_price"`
	Features     []string `json:"features"`
	Active       bool     `json:"active"`
}

// UserSubscription is a tenant's active plan. At most one active record
// exists per tenant; a 14-day trial is created on first access when none
// exists. Expiry is computed on read, not enforced by a background mutation.
type UserSubscription struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	TierID    string    `json:"tier_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Trial     bool      `json:"trial"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the subscription's end date has passed.
func (s *UserSubscription) Expired(now time.Time) bool {
	return !s.EndsAt.IsZero() && now.After(s.EndsAt)
}
