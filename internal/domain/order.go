package domain

import "time"

// OrderStatus is the normalized order state. Platform-native statuses are
// mapped onto this set at ingestion time.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// Order is one ingested order, unique per (connection, external order id).
// Orders are append-only: rows are never mutated after creation.
type Order struct {
	ID                 string      `json:"id"`
	ConnectionID       string      `json:"connection_id"`
	ExternalOrderID    string      `json:"external_order_id"`
	ExternalCustomerID string      `json:"external_customer_id,omitempty"`
	OrderNumber        string      `json:"order_number"`
	TotalAmount        float64     `json:"total_amount"`
	Currency           string      `json:"currency"`
	Status             OrderStatus `json:"status"`
	PlacedAt           time.Time   `json:"placed_at"`
	CreatedAt          time.Time   `json:"created_at"`
}

// OrderStatusFromFinancial maps Shopify's financial_status onto the
// normalized status set.
func OrderStatusFromFinancial(financialStatus string) OrderStatus {
	switch financialStatus {
	case "paid":
		return OrderStatusCompleted
	case "authorized", "partially_paid":
		return OrderStatusProcessing
	case "refunded", "partially_refunded", "voided":
		return OrderStatusRefunded
	default:
		return OrderStatusPending
	}
}
