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

// MongoOrderRepository implements OrderRepository using MongoDB
type MongoOrderRepository struct {
	collection  *mongo.Collection
	connections *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository
func NewMongoOrderRepository(db *mongo.Database) ports.OrderRepository {
	repo := &MongoOrderRepository{
		collection:  db.Collection("orders"),
		connections: db.Collection("connections"),
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "connectionId", Value: 1},
			{Key: "externalOrderId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, _ = repo.collection.Indexes().CreateOne(context.Background(), indexModel)

	return repo
}

// Upsert inserts the order keyed by (connection, external order id).
// $setOnInsert leaves an existing row untouched, so webhook redelivery never
// duplicates an order or rewrites an append-only row.
func (r *MongoOrderRepository) Upsert(ctx context.Context, order *domain.Order) (bool, error) {
	doc := entity.MongoOrderDocFromDomain(order)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now()

	filter := bson.M{
		"connectionId":    order.ConnectionID,
		"externalOrderId": order.ExternalOrderID,
	}
	update := bson.M{"$setOnInsert": doc}
	opts := options.Update().SetUpsert(true)

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return false, fmt.Errorf("failed to upsert order: %w", err)
	}

	inserted := result.UpsertedCount > 0
	if inserted {
		order.ID = doc.ID.Hex()
		order.CreatedAt = doc.CreatedAt
	}
	return inserted, nil
}

// ListByConnection retrieves all orders for a connection
func (r *MongoOrderRepository) ListByConnection(ctx context.Context, connectionID string) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"connectionId": connectionID})
}

// ListByTenant retrieves all orders across a tenant's connections
func (r *MongoOrderRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Order, error) {
	connectionIDs, err := r.connectionIDsForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(connectionIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"connectionId": bson.M{"$in": connectionIDs}})
}

func (r *MongoOrderRepository) connectionIDsForTenant(ctx context.Context, tenantID string) ([]string, error) {
	cursor, err := r.connections.Find(ctx, bson.M{"tenantId": tenantID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant connections: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode connection id: %w", err)
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

func (r *MongoOrderRepository) list(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

// MongoProductRepository implements ProductRepository using MongoDB
type MongoProductRepository struct {
	collection  *mongo.Collection
	connections *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository
func NewMongoProductRepository(db *mongo.Database) ports.ProductRepository {
	repo := &MongoProductRepository{
		collection:  db.Collection("products"),
		connections: db.Collection("connections"),
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "connectionId", Value: 1},
			{Key: "externalProductId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, _ = repo.collection.Indexes().CreateOne(context.Background(), indexModel)

	return repo
}

// Upsert inserts or updates the product keyed by (connection, external id)
func (r *MongoProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	now := time.Now()

	set := bson.M{
		"name":      product.Name,
		"sku":       product.SKU,
		"price":     product.Price,
		"currency":  product.Currency,
		"updatedAt": now,
	}
	if product.InventoryCount != nil {
		set["inventoryCount"] = *product.InventoryCount
	}
	if product.LowStockThreshold != nil {
		set["lowStockThreshold"] = *product.LowStockThreshold
	}

	filter := bson.M{
		"connectionId":      product.ConnectionID,
		"externalProductId": product.ExternalProductID,
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":               primitive.NewObjectID(),
			"connectionId":      product.ConnectionID,
			"externalProductId": product.ExternalProductID,
			"createdAt":         now,
		},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

// ListByConnection retrieves all products for a connection
func (r *MongoProductRepository) ListByConnection(ctx context.Context, connectionID string) ([]*domain.Product, error) {
	return r.list(ctx, bson.M{"connectionId": connectionID})
}

// ListByTenant retrieves all products across a tenant's connections
func (r *MongoProductRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Product, error) {
	cursor, err := r.connections.Find(ctx, bson.M{"tenantId": tenantID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant connections: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode connection id: %w", err)
		}
		ids = append(ids, doc.ID.Hex())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"connectionId": bson.M{"$in": ids}})
}

func (r *MongoProductRepository) list(ctx context.Context, filter bson.M) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var doc entity.MongoProductDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return products, nil
}
