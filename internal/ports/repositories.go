package ports

import (
	"context"
	"time"

	"storepulse-analytics-core/internal/domain"
)

// ConnectionRepository defines the interface for connection persistence.
//
// Counter increments are atomic read-modify-write operations at the storage
// layer: concurrent webhook deliveries for the same connection must not lose
// updates.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.Connection) error
	Update(ctx context.Context, conn *domain.Connection) error
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	// GetByShopDomain looks a connection up across all tenants; shop domains
	// are globally unique. Returns nil, nil when not found.
	GetByShopDomain(ctx context.Context, shopDomain string) (*domain.Connection, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Connection, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
	// SumOrdersProcessed totals TotalOrdersProcessed across all of a
	// tenant's connections.
	SumOrdersProcessed(ctx context.Context, tenantID string) (int64, error)
	IncrementAPIRequests(ctx context.Context, id string, delta int64) error
	IncrementOrdersProcessed(ctx context.Context, id string, delta int64) error
	TouchLastWebhook(ctx context.Context, id string, at time.Time) error
	// TouchLastSync stamps the last-sync timestamp without rewriting the
	// rest of the document, so it cannot race with counter increments.
	TouchLastSync(ctx context.Context, id string, at time.Time) error
	// Deactivate soft-deletes the connection for a shop (active=false).
	Deactivate(ctx context.Context, shopDomain string) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Upsert inserts the order keyed by (connection id, external order id)
	// and reports whether a new row was actually created. Redelivery of an
	// already-ingested order inserts nothing and returns false.
	Upsert(ctx context.Context, order *domain.Order) (inserted bool, err error)
	ListByConnection(ctx context.Context, connectionID string) ([]*domain.Order, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Order, error)
}

// ProductRepository defines the interface for product persistence.
type ProductRepository interface {
	// Upsert inserts or updates the product keyed by (connection id,
	// external product id). Mutable fields (name, sku, price, inventory)
	// are replaced in place on conflict.
	Upsert(ctx context.Context, product *domain.Product) error
	ListByConnection(ctx context.Context, connectionID string) ([]*domain.Product, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Product, error)
}

// UsageRepository defines the interface for usage-record persistence.
type UsageRepository interface {
	Insert(ctx context.Context, record *domain.UsageRecord) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.UsageRecord, error)
	// DeleteOlderThan prunes records created before cutoff and returns the
	// number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TierRepository defines the interface for the subscription tier catalogue.
type TierRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SubscriptionTier, error)
	List(ctx context.Context) ([]*domain.SubscriptionTier, error)
	Save(ctx context.Context, tier *domain.SubscriptionTier) error
}

// SubscriptionRepository defines the interface for tenant subscriptions.
type SubscriptionRepository interface {
	// GetActiveByTenant returns nil, nil when the tenant has no active
	// subscription.
	GetActiveByTenant(ctx context.Context, tenantID string) (*domain.UserSubscription, error)
	Create(ctx context.Context, sub *domain.UserSubscription) error
	Update(ctx context.Context, sub *domain.UserSubscription) error
}
