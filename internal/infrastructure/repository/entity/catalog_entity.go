package entity

import (
	"time"

	"storepulse-analytics-core/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoOrderDoc represents an ingested order in MongoDB
type MongoOrderDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	ConnectionID       string             `bson:"connectionId"`
	ExternalOrderID    string             `bson:"externalOrderId"`
	ExternalCustomerID string             `bson:"externalCustomerId,omitempty"`
	OrderNumber        string             `bson:"orderNumber"`
	TotalAmount        float64            `bson:"totalAmount"`
	Currency           string             `bson:"currency"`
	Status             string             `bson:"status"`
	PlacedAt           time.Time          `bson:"placedAt"`
	CreatedAt          time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	return &domain.Order{
		ID:                 d.ID.Hex(),
		ConnectionID:       d.ConnectionID,
		ExternalOrderID:    d.ExternalOrderID,
		ExternalCustomerID: d.ExternalCustomerID,
		OrderNumber:        d.OrderNumber,
		TotalAmount:        d.TotalAmount,
		Currency:           d.Currency,
		Status:             domain.OrderStatus(d.Status),
		PlacedAt:           d.PlacedAt,
		CreatedAt:          d.CreatedAt,
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderDocFromDomain(order *domain.Order) *MongoOrderDoc {
	doc := &MongoOrderDoc{
		ConnectionID:       order.ConnectionID,
		ExternalOrderID:    order.ExternalOrderID,
		ExternalCustomerID: order.ExternalCustomerID,
		OrderNumber:        order.OrderNumber,
		TotalAmount:        order.TotalAmount,
		Currency:           order.Currency,
		Status:             string(order.Status),
		PlacedAt:           order.PlacedAt,
		CreatedAt:          order.CreatedAt,
	}
	if order.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(order.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}

// MongoProductDoc represents a tracked product in MongoDB
type MongoProductDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	ConnectionID      string             `bson:"connectionId"`
	ExternalProductID string             `bson:"externalProductId"`
	Name              string             `bson:"name"`
	SKU               string             `bson:"sku,omitempty"`
	Price             float64            `bson:"price"`
	Currency          string             `bson:"currency,omitempty"`
	InventoryCount    *int64             `bson:"inventoryCount,omitempty"`
	LowStockThreshold *int64             `bson:"lowStockThreshold,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoProductDoc) ToDomain() *domain.Product {
	return &domain.Product{
		ID:                d.ID.Hex(),
		ConnectionID:      d.ConnectionID,
		ExternalProductID: d.ExternalProductID,
		Name:              d.Name,
		SKU:               d.SKU,
		Price:             d.Price,
		Currency:          d.Currency,
		InventoryCount:    d.InventoryCount,
		LowStockThreshold: d.LowStockThreshold,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document
func MongoProductDocFromDomain(product *domain.Product) *MongoProductDoc {
	doc := &MongoProductDoc{
		ConnectionID:      product.ConnectionID,
		ExternalProductID: product.ExternalProductID,
		Name:              product.Name,
		SKU:               product.SKU,
		Price:             product.Price,
		Currency:          product.Currency,
		InventoryCount:    product.InventoryCount,
		LowStockThreshold: product.LowStockThreshold,
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}
	if product.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(product.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}
