package domain

import "time"

// Product is one tracked product, unique per (connection, external product id).
// Unlike orders, products are upserted in place on subsequent updates.
//
// InventoryCount is nil when the platform does not track inventory for the
// product; LowStockThreshold is nil when no alert threshold is configured.
type Product struct {
	ID                string    `json:"id"`
	ConnectionID      string    `json:"connection_id"`
	ExternalProductID string    `json:"external_product_id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku,omitempty"`
	Price             float64   `json:"price"`
	Currency          string    `json:"currency"`
	InventoryCount    *int64    `json:"inventory_count,omitempty"`
	LowStockThreshold *int64    `json:"low_stock_threshold,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LowStock reports whether the product tracks inventory, has a threshold
// configured, and is at or below it.
func (p *Product) LowStock() bool {
	return p.InventoryCount != nil && p.LowStockThreshold != nil &&
		*p.InventoryCount <= *p.LowStockThreshold
}
