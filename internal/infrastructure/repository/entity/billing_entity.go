package entity

import (
	"time"

	"storepulse-analytics-core/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoUsageDoc represents a usage record in MongoDB
type MongoUsageDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	TenantID     string             `bson:"tenantId"`
	ConnectionID string             `bson:"connectionId,omitempty"`
	Path         string             `bson:"path"`
	Method       string             `bson:"method"`
	StatusCode   int                `bson:"statusCode"`
	LatencyMs    int64              `bson:"latencyMs"`
	ClientIP     string             `bson:"clientIp"`
	UserAgent    string             `bson:"userAgent"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoUsageDoc) ToDomain() *domain.UsageRecord {
	return &domain.UsageRecord{
		ID:           d.ID.Hex(),
		TenantID:     d.TenantID,
		ConnectionID: d.ConnectionID,
		Path:         d.Path,
		Method:       d.Method,
		StatusCode:   d.StatusCode,
		Latency:      time.Duration(d.LatencyMs) * time.Millisecond,
		ClientIP:     d.ClientIP,
		UserAgent:    d.UserAgent,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoUsageDocFromDomain converts a domain entity to a MongoDB document
func MongoUsageDocFromDomain(record *domain.UsageRecord) *MongoUsageDoc {
	return &MongoUsageDoc{
		TenantID:     record.TenantID,
		ConnectionID: record.ConnectionID,
		Path:         record.Path,
		Method:       record.Method,
		StatusCode:   record.StatusCode,
		LatencyMs:    record.Latency.Milliseconds(),
		ClientIP:     record.ClientIP,
		UserAgent:    record.UserAgent,
		CreatedAt:    record.CreatedAt,
	}
}

// MongoTierDoc represents a subscription tier in MongoDB
type MongoTierDoc struct {
	ID           string   `bson:"_id"`
	Name         string   `bson:"name"`
	MaxOrders    int64    `bson:"maxOrders"`
	MaxStores    int      `bson:"maxStores"`
	MonthlyPrice float64  `bson:"monthlyPrice"`
	Features     []string `bson:"features"`
	Active       bool     `bson:"active"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoTierDoc) ToDomain() *domain.SubscriptionTier {
	return &domain.SubscriptionTier{
		ID:           d.ID,
		Name:         d.Name,
		MaxOrders:    d.MaxOrders,
		MaxStores:    d.MaxStores,
		MonthlyPrice: d.MonthlyPrice,
		Features:     d.Features,
		Active:       d.Active,
	}
}

// MongoTierDocFromDomain converts a domain entity to a MongoDB document
func MongoTierDocFromDomain(tier *domain.SubscriptionTier) *MongoTierDoc {
	return &MongoTierDoc{
		ID:           tier.ID,
		Name:         tier.Name,
		MaxOrders:    tier.MaxOrders,
		MaxStores:    tier.MaxStores,
		MonthlyPrice: tier.MonthlyPrice,
		Features:     tier.Features,
		Active:       tier.Active,
	}
}

// MongoSubscriptionDoc represents a tenant subscription in MongoDB
type MongoSubscriptionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TenantID  string             `bson:"tenantId"`
	TierID    string             `bson:"tierId"`
	StartsAt  time.Time          `bson:"startsAt"`
	EndsAt    time.Time          `bson:"endsAt"`
	Trial     bool               `bson:"trial"`
	Active    bool               `bson:"active"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSubscriptionDoc) ToDomain() *domain.UserSubscription {
	return &domain.UserSubscription{
		ID:        d.ID.Hex(),
		TenantID:  d.TenantID,
		TierID:    d.TierID,
		StartsAt:  d.StartsAt,
		EndsAt:    d.EndsAt,
		Trial:     d.Trial,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoSubscriptionDocFromDomain converts a domain entity to a MongoDB document
func MongoSubscriptionDocFromDomain(sub *domain.UserSubscription) *MongoSubscriptionDoc {
	doc := &MongoSubscriptionDoc{
		TenantID:  sub.TenantID,
		TierID:    sub.TierID,
		StartsAt:  sub.StartsAt,
		EndsAt:    sub.EndsAt,
		Trial:     sub.Trial,
		Active:    sub.Active,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
	if sub.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(sub.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}
