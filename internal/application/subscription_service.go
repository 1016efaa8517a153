package application

import (
	"context"
	"fmt"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// Tier ids in the static catalogue.
const (
	TierTrial      = "trial"
	TierStarter    = "starter"
	TierGrowth     = "growth"
	TierEnterprise = "enterprise"
)

const trialDuration = 14 * 24 * time.Hour

// DefaultTiers is the hardcoded tier catalogue, seeded into the repository
// at startup.
var DefaultTiers = []*domain.SubscriptionTier{
	{
		ID:           TierTrial,
		Name:         "Trial",
		MaxOrders:    100,
		MaxStores:    1,
		MonthlyPrice: 0,
		Features:     []string{"dashboard", "1 store"},
		Active:       true,
	},
	{
		ID:           TierStarter,
		Name:         "Starter",
		MaxOrders:    1000,
		MaxStores:    2,
		MonthlyPrice: 29,
		Features:     []string{"dashboard", "inventory alerts", "2 stores"},
		Active:       true,
	},
	{
		ID:           TierGrowth,
		Name:         "Growth",
		MaxOrders:    10000,
		MaxStores:    5,
		MonthlyPrice: 99,
		Features:     []string{"dashboard", "inventory alerts", "5 stores", "priority support"},
		Active:       true,
	},
	{
		ID:           TierEnterprise,
		Name:         "Enterprise",
		MaxOrders:    1000000,
		MaxStores:    25,
		MonthlyPrice: 499,
		Features:     []string{"everything", "25 stores", "dedicated support"},
		Active:       true,
	},
}

// SubscriptionService manages tenant subscriptions against the tier
// catalogue.
type SubscriptionService struct {
	subRepo  ports.SubscriptionRepository
	tierRepo ports.TierRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subRepo ports.SubscriptionRepository,
	tierRepo ports.TierRepository,
	logger zerolog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		tierRepo: tierRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// SeedTiers writes the default catalogue into the tier repository.
func (s *SubscriptionService) SeedTiers(ctx context.Context) error {
	for _, tier := range DefaultTiers {
		if err := s.tierRepo.Save(ctx, tier); err != nil {
			return fmt.Errorf("failed to seed tier %s: %w", tier.ID, err)
		}
	}
	return nil
}

// GetOrCreate returns the tenant's active subscription, creating a trial on
// first access when none exists. Trial expiry is computed on read, never
// enforced by a background mutation.
func (s *SubscriptionService) GetOrCreate(ctx context.Context, tenantID string) (*domain.UserSubscription, error) {
	sub, err := s.subRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub != nil {
		return sub, nil
	}

	now := s.now()
	sub = &domain.UserSubscription{
		TenantID: tenantID,
		TierID:   TierTrial,
		StartsAt: now,
		EndsAt:   now.Add(trialDuration),
		Trial:    true,
		Active:   true,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create trial subscription: %w", err)
	}

	s.logger.Info().
		Str("tenantId", tenantID).
		Time("endsAt", sub.EndsAt).
		Msg("Created trial subscription on first access")

	return sub, nil
}

// EffectiveTier resolves the tier backing a tenant's subscription, creating
// the trial if needed. A subscription pointing at an unknown tier is a
// data-integrity error (ErrTierNotFound).
func (s *SubscriptionService) EffectiveTier(ctx context.Context, tenantID string) (*domain.SubscriptionTier, error) {
	sub, err := s.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.tierRepo.GetByID(ctx, sub.TierID)
}

// Cancel deactivates the tenant's subscription. The account-management
// endpoints that call this stay reachable even when the tenant is over
// quota.
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID string) error {
	sub, err := s.subRepo.GetActiveByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil
	}

	sub.Active = false
	sub.EndsAt = s.now()
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	s.logger.Info().Str("tenantId", tenantID).Msg("Cancelled subscription")
	return nil
}

// ListTiers returns the active tier catalogue.
func (s *SubscriptionService) ListTiers(ctx context.Context) ([]*domain.SubscriptionTier, error) {
	return s.tierRepo.List(ctx)
}
