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

// MongoConnectionRepository implements ConnectionRepository using MongoDB
type MongoConnectionRepository struct {
	collection *mongo.Collection
}

// NewMongoConnectionRepository creates a new MongoDB connection repository
func NewMongoConnectionRepository(db *mongo.Database) ports.ConnectionRepository {
	repo := &MongoConnectionRepository{
		collection: db.Collection("connections"),
	}

	// Shop domains are globally unique across tenants.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = repo.collection.Indexes().CreateOne(context.Background(), indexModel)

	return repo
}

// Create creates a new connection
func (r *MongoConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	doc := entity.MongoConnectionDocFromDomain(conn)
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}

	conn.ID = doc.ID.Hex()
	conn.CreatedAt = doc.CreatedAt
	conn.UpdatedAt = doc.UpdatedAt
	return nil
}

// Update replaces the connection's mutable fields
func (r *MongoConnectionRepository) Update(ctx context.Context, conn *domain.Connection) error {
	objID, err := primitive.ObjectIDFromHex(conn.ID)
	if err != nil {
		return fmt.Errorf("invalid connection id: %w", err)
	}

	conn.UpdatedAt = time.Now()
	doc := entity.MongoConnectionDocFromDomain(conn)

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}

// GetByID retrieves a connection by its id
func (r *MongoConnectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrConnectionNotFound
	}

	var doc entity.MongoConnectionDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return doc.ToDomain(), nil
}

// GetByShopDomain retrieves a connection by shop domain across all tenants
func (r *MongoConnectionRepository) GetByShopDomain(ctx context.Context, shopDomain string) (*domain.Connection, error) {
	var doc entity.MongoConnectionDoc
	err := r.collection.FindOne(ctx, bson.M{"shopDomain": shopDomain}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return doc.ToDomain(), nil
}

// ListByTenant retrieves all of a tenant's connections
func (r *MongoConnectionRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Connection, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer cursor.Close(ctx)

	var conns []*domain.Connection
	for cursor.Next(ctx) {
		var doc entity.MongoConnectionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode connection: %w", err)
		}
		conns = append(conns, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return conns, nil
}

// CountByTenant counts a tenant's connections
func (r *MongoConnectionRepository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"tenantId": tenantID})
	if err != nil {
		return 0, fmt.Errorf("failed to count connections: %w", err)
	}
	return int(count), nil
}

// SumOrdersProcessed totals processed-order counters across a tenant's connections
func (r *MongoConnectionRepository) SumOrdersProcessed(ctx context.Context, tenantID string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tenantId": tenantID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalOrdersProcessed"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum orders processed: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode aggregation: %w", err)
		}
	}
	return result.Total, nil
}

// IncrementAPIRequests atomically increments the API-request counter
func (r *MongoConnectionRepository) IncrementAPIRequests(ctx context.Context, id string, delta int64) error {
	return r.increment(ctx, id, "totalApiRequests", delta)
}

// IncrementOrdersProcessed atomically increments the processed-order counter
func (r *MongoConnectionRepository) IncrementOrdersProcessed(ctx context.Context, id string, delta int64) error {
	return r.increment(ctx, id, "totalOrdersProcessed", delta)
}

func (r *MongoConnectionRepository) increment(ctx context.Context, id string, field string, delta int64) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrConnectionNotFound
	}

	// $inc is a server-side read-modify-write: concurrent webhook deliveries
	// for the same connection cannot lose updates.
	update := bson.M{
		"$inc": bson.M{field: delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}

// TouchLastWebhook stamps the connection's last-webhook timestamp
func (r *MongoConnectionRepository) TouchLastWebhook(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrConnectionNotFound
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{"lastWebhookAt": at, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to touch last webhook: %w", err)
	}
	return nil
}

// TouchLastSync stamps the connection's last-sync timestamp. Field-only $set,
// so a concurrent $inc on the counters is never overwritten.
func (r *MongoConnectionRepository) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrConnectionNotFound
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{"lastSyncAt": at, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to touch last sync: %w", err)
	}
	return nil
}

// Deactivate soft-deletes the connection for a shop
func (r *MongoConnectionRepository) Deactivate(ctx context.Context, shopDomain string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"shopDomain": shopDomain}, bson.M{
		"$set": bson.M{"active": false, "updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}

// Delete hard-deletes a connection by id
func (r *MongoConnectionRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrConnectionNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}
