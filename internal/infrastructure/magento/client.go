package magento

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// client talks to a Magento 2 store over its REST API, authenticated with
// the integration token stored on the connection (manual credential mode).
type client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Magento client adapter.
func NewClient(logger zerolog.Logger) ports.PlatformClient {
	return &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *client) get(ctx context.Context, conn *domain.Connection, path string, out interface{}) error {
	u := fmt.Sprintf("https://%s/rest/V1%s", conn.ShopDomain, path)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+conn.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("magento API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetShopInfo fetches the store's configured name and base URL.
func (c *client) GetShopInfo(ctx context.Context, conn *domain.Connection) (*domain.ShopInfo, error) {
	var configs []struct {
		Code            string `json:"code"`
		BaseURL         string `json:"base_url"`
		DefaultGroupID  int    `json:"default_group_id"`
		WebsiteID       int    `json:"website_id"`
		LocaleCode      string `json:"locale"`
		BaseCurrencyCode string `json:"base_currency_code"`
	}
	if err := c.get(ctx, conn, "/store/storeConfigs", &configs); err != nil {
		return nil, fmt.Errorf("failed to get store config: %w", err)
	}
	info := &domain.ShopInfo{Domain: conn.ShopDomain, Name: conn.ShopDomain}
	if len(configs) > 0 {
		info.Name = configs[0].Code
	}
	return info, nil
}

type magentoOrder struct {
	EntityID    int64   `json:"entity_id"`
	IncrementID string  `json:"increment_id"`
	CustomerID  *int64  `json:"customer_id"`
	GrandTotal  float64 `json:"grand_total"`
	Currency    string  `json:"order_currency_code"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// ListOrders pulls orders through the sales order search endpoint and
// translates them into local shape.
func (c *client) ListOrders(ctx context.Context, conn *domain.Connection) ([]*domain.Order, error) {
	var response struct {
		Items []magentoOrder `json:"items"`
	}
	if err := c.get(ctx, conn, "/orders?searchCriteria[pageSize]=250", &response); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]*domain.Order, 0, len(response.Items))
	for i := range response.Items {
		result = append(result, translateOrder(conn.ID, &response.Items[i]))
	}
	return result, nil
}

type magentoProduct struct {
	ID    int64   `json:"id"`
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	ExtensionAttributes struct {
		StockItem *struct {
			Qty int64 `json:"qty"`
		} `json:"stock_item"`
	} `json:"extension_attributes"`
}

// ListProducts pulls the catalogue and translates it into local shape.
func (c *client) ListProducts(ctx context.Context, conn *domain.Connection) ([]*domain.Product, error) {
	var response struct {
		Items []magentoProduct `json:"items"`
	}
	if err := c.get(ctx, conn, "/products?searchCriteria[pageSize]=250", &response); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := make([]*domain.Product, 0, len(response.Items))
	for i := range response.Items {
		result = append(result, translateProduct(conn.ID, &response.Items[i]))
	}
	return result, nil
}

func translateOrder(connectionID string, o *magentoOrder) *domain.Order {
	order := &domain.Order{
		ConnectionID:    connectionID,
		ExternalOrderID: strconv.FormatInt(o.EntityID, 10),
		OrderNumber:     o.IncrementID,
		TotalAmount:     o.GrandTotal,
		Currency:        o.Currency,
		Status:          translateStatus(o.Status),
	}
	if o.CustomerID != nil {
		order.ExternalCustomerID = strconv.FormatInt(*o.CustomerID, 10)
	}
	if t, err := time.Parse("2006-01-02 15:04:05", o.CreatedAt); err == nil {
		order.PlacedAt = t
	}
	return order
}

func translateStatus(status string) domain.OrderStatus {
	switch status {
	case "complete":
		return domain.OrderStatusCompleted
	case "processing":
		return domain.OrderStatusProcessing
	case "closed", "canceled":
		return domain.OrderStatusRefunded
	default:
		return domain.OrderStatusPending
	}
}

func translateProduct(connectionID string, p *magentoProduct) *domain.Product {
	product := &domain.Product{
		ConnectionID:      connectionID,
		ExternalProductID: strconv.FormatInt(p.ID, 10),
		Name:              p.Name,
		SKU:               p.SKU,
		Price:             p.Price,
	}
	if p.ExtensionAttributes.StockItem != nil {
		qty := p.ExtensionAttributes.StockItem.Qty
		product.InventoryCount = &qty
	}
	return product
}
