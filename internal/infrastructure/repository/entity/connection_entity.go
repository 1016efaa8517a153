package entity

import (
	"time"

	"storepulse-analytics-core/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoConnectionDoc represents a connection in MongoDB
type MongoConnectionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TenantID   string             `bson:"tenantId"`
	Platform   string             `bson:"platform"`
	ShopDomain string             `bson:"shopDomain"`
	ShopName   string             `bson:"shopName"`

	AccessToken string `bson:"accessToken,omitempty"`
	Scope       string `bson:"scope,omitempty"`
	APIKey      string `bson:"apiKey,omitempty"`
	APISecret   string `bson:"apiSecret,omitempty"`

	Active               bool       `bson:"active"`
	LastSyncAt           *time.Time `bson:"lastSyncAt,omitempty"`
	LastWebhookAt        *time.Time `bson:"lastWebhookAt,omitempty"`
	TotalAPIRequests     int64      `bson:"totalApiRequests"`
	TotalOrdersProcessed int64      `bson:"totalOrdersProcessed"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoConnectionDoc) ToDomain() *domain.Connection {
	return &domain.Connection{
		ID:                   d.ID.Hex(),
		TenantID:             d.TenantID,
		Platform:             domain.Platform(d.Platform),
		ShopDomain:           d.ShopDomain,
		ShopName:             d.ShopName,
		AccessToken:          d.AccessToken,
		Scope:                d.Scope,
		APIKey:               d.APIKey,
		APISecret:            d.APISecret,
		Active:               d.Active,
		LastSyncAt:           d.LastSyncAt,
		LastWebhookAt:        d.LastWebhookAt,
		TotalAPIRequests:     d.TotalAPIRequests,
		TotalOrdersProcessed: d.TotalOrdersProcessed,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// MongoConnectionDocFromDomain converts a domain entity to a MongoDB document
func MongoConnectionDocFromDomain(conn *domain.Connection) *MongoConnectionDoc {
	doc := &MongoConnectionDoc{
		TenantID:             conn.TenantID,
		Platform:             string(conn.Platform),
		ShopDomain:           conn.ShopDomain,
		ShopName:             conn.ShopName,
		AccessToken:          conn.AccessToken,
		Scope:                conn.Scope,
		APIKey:               conn.APIKey,
		APISecret:            conn.APISecret,
		Active:               conn.Active,
		LastSyncAt:           conn.LastSyncAt,
		LastWebhookAt:        conn.LastWebhookAt,
		TotalAPIRequests:     conn.TotalAPIRequests,
		TotalOrdersProcessed: conn.TotalOrdersProcessed,
		CreatedAt:            conn.CreatedAt,
		UpdatedAt:            conn.UpdatedAt,
	}

	if conn.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(conn.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
