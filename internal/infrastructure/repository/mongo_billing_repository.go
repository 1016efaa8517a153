package repository

import (
	"context"
	"fmt"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/repository/entity"
	"storepulse-analytics-core/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUsageRepository implements UsageRepository using MongoDB
type MongoUsageRepository struct {
	collection *mongo.Collection
}

// NewMongoUsageRepository creates a new MongoDB usage repository
func NewMongoUsageRepository(db *mongo.Database) ports.UsageRepository {
	return &MongoUsageRepository{
		collection: db.Collection("usage_records"),
	}
}

// Insert appends one usage record
func (r *MongoUsageRepository) Insert(ctx context.Context, record *domain.UsageRecord) error {
	doc := entity.MongoUsageDocFromDomain(record)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	record.ID = doc.ID.Hex()
	return nil
}

// ListByTenant retrieves the most recent usage records for a tenant
func (r *MongoUsageRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.UsageRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"tenantId": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.UsageRecord
	for cursor.Next(ctx) {
		var doc entity.MongoUsageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode usage record: %w", err)
		}
		records = append(records, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}

// DeleteOlderThan prunes usage records created before cutoff
func (r *MongoUsageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	return result.DeletedCount, nil
}

// MongoTierRepository implements TierRepository using MongoDB
type MongoTierRepository struct {
	collection *mongo.Collection
}

// NewMongoTierRepository creates a new MongoDB tier repository
func NewMongoTierRepository(db *mongo.Database) ports.TierRepository {
	return &MongoTierRepository{
		collection: db.Collection("subscription_tiers"),
	}
}

// GetByID retrieves a tier from the catalogue
func (r *MongoTierRepository) GetByID(ctx context.Context, id string) (*domain.SubscriptionTier, error) {
	var doc entity.MongoTierDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrTierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tier: %w", err)
	}
	return doc.ToDomain(), nil
}

// List retrieves the active tier catalogue
func (r *MongoTierRepository) List(ctx context.Context) ([]*domain.SubscriptionTier, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer cursor.Close(ctx)

	var tiers []*domain.SubscriptionTier
	for cursor.Next(ctx) {
		var doc entity.MongoTierDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode tier: %w", err)
		}
		tiers = append(tiers, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tiers, nil
}

// Save upserts a catalogue entry, used for seeding at startup
func (r *MongoTierRepository) Save(ctx context.Context, tier *domain.SubscriptionTier) error {
	doc := entity.MongoTierDocFromDomain(tier)
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": tier.ID}, bson.M{"$set": doc}, opts)
	if err != nil {
		return fmt.Errorf("failed to save tier: %w", err)
	}
	return nil
}

// MongoSubscriptionRepository implements SubscriptionRepository using MongoDB
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new MongoDB subscription repository
func NewMongoSubscriptionRepository(db *mongo.Database) ports.SubscriptionRepository {
	return &MongoSubscriptionRepository{
		collection: db.Collection("user_subscriptions"),
	}
}

// GetActiveByTenant returns the tenant's active subscription, nil when none
func (r *MongoSubscriptionRepository) GetActiveByTenant(ctx context.Context, tenantID string) (*domain.UserSubscription, error) {
	var doc entity.MongoSubscriptionDoc
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID, "active": true}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return doc.ToDomain(), nil
}

// Create creates a new subscription
func (r *MongoSubscriptionRepository) Create(ctx context.Context, sub *domain.UserSubscription) error {
	doc := entity.MongoSubscriptionDocFromDomain(sub)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	sub.ID = doc.ID.Hex()
	sub.CreatedAt = doc.CreatedAt
	sub.UpdatedAt = doc.UpdatedAt
	return nil
}

// Update replaces the subscription's mutable fields
func (r *MongoSubscriptionRepository) Update(ctx context.Context, sub *domain.UserSubscription) error {
	objID, err := primitive.ObjectIDFromHex(sub.ID)
	if err != nil {
		return fmt.Errorf("invalid subscription id: %w", err)
	}

	sub.UpdatedAt = time.Now()
	doc := entity.MongoSubscriptionDocFromDomain(sub)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}
