package application

import (
	"context"
	"fmt"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// Summary is the KPI block for a tenant's dashboard.
type Summary struct {
	TotalRevenue      float64                    `json:"total_revenue"`
	OrderCount        int                        `json:"order_count"`
	AverageOrderValue float64                    `json:"average_order_value"`
	StatusBreakdown   map[domain.OrderStatus]int `json:"status_breakdown"`
	ConnectedStores   int                        `json:"connected_stores"`
}

// LowStockAlert flags a product at or below its configured threshold.
type LowStockAlert struct {
	Product   *domain.Product `json:"product"`
	Inventory int64           `json:"inventory"`
	Threshold int64           `json:"threshold"`
}

// AnalyticsService computes dashboard KPIs over ingested data.
type AnalyticsService struct {
	connRepo    ports.ConnectionRepository
	orderRepo   ports.OrderRepository
	productRepo ports.ProductRepository
	logger      zerolog.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	connRepo ports.ConnectionRepository,
	orderRepo ports.OrderRepository,
	productRepo ports.ProductRepository,
	logger zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		connRepo:    connRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// Summarize computes the KPI block across all of a tenant's connections.
// Refunded orders are excluded from revenue but kept in the breakdown.
func (s *AnalyticsService) Summarize(ctx context.Context, tenantID string) (*Summary, error) {
	orders, err := s.orderRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	conns, err := s.connRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}

	summary := &Summary{
		StatusBreakdown: make(map[domain.OrderStatus]int),
		ConnectedStores: len(conns),
	}

	for _, order := range orders {
		summary.OrderCount++
		summary.StatusBreakdown[order.Status]++
		if order.Status != domain.OrderStatusRefunded {
			summary.TotalRevenue += order.TotalAmount
		}
	}
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(summary.OrderCount)
	}

	return summary, nil
}

// LowStockAlerts returns every product of the tenant that tracks inventory
// and sits at or below its threshold.
func (s *AnalyticsService) LowStockAlerts(ctx context.Context, tenantID string) ([]*LowStockAlert, error) {
	products, err := s.productRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	var alerts []*LowStockAlert
	for _, p := range products {
		if p.LowStock() {
			alerts = append(alerts, &LowStockAlert{
				Product:   p,
				Inventory: *p.InventoryCount,
				Threshold: *p.LowStockThreshold,
			})
		}
	}
	return alerts, nil
}
