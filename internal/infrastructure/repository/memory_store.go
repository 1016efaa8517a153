package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/google/uuid"
)

// MemoryStore backs every repository port with in-process maps, used for
// tests and for running the API without MongoDB. Aggregate-specific views
// are exposed through Connections(), Orders() etc. All counter updates
// happen under the store lock, so concurrent increments never lose writes.
type MemoryStore struct {
	mu            sync.RWMutex
	connections   map[string]*domain.Connection // by ID
	shopDomains   map[string]string             // shop domain → connection ID
	orders        map[string]*domain.Order      // by connectionID+"/"+externalOrderID
	products      map[string]*domain.Product    // by connectionID+"/"+externalProductID
	usage         []*domain.UsageRecord
	tiers         map[string]*domain.SubscriptionTier
	subscriptions map[string]*domain.UserSubscription // by ID
}

// NewMemoryStore creates a new empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		connections:   make(map[string]*domain.Connection),
		shopDomains:   make(map[string]string),
		orders:        make(map[string]*domain.Order),
		products:      make(map[string]*domain.Product),
		tiers:         make(map[string]*domain.SubscriptionTier),
		subscriptions: make(map[string]*domain.UserSubscription),
	}
}

// Connections returns the connection repository view.
func (m *MemoryStore) Connections() ports.ConnectionRepository { return memoryConnections{m} }

// Orders returns the order repository view.
func (m *MemoryStore) Orders() ports.OrderRepository { return memoryOrders{m} }

// Products returns the product repository view.
func (m *MemoryStore) Products() ports.ProductRepository { return memoryProducts{m} }

// Usage returns the usage repository view.
func (m *MemoryStore) Usage() ports.UsageRepository { return memoryUsage{m} }

// Tiers returns the tier catalogue view.
func (m *MemoryStore) Tiers() ports.TierRepository { return memoryTiers{m} }

// Subscriptions returns the subscription repository view.
func (m *MemoryStore) Subscriptions() ports.SubscriptionRepository { return memorySubscriptions{m} }

// Connection operations

type memoryConnections struct{ *MemoryStore }

func (m memoryConnections) Create(_ context.Context, conn *domain.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	cp := *conn
	m.connections[conn.ID] = &cp
	m.shopDomains[conn.ShopDomain] = conn.ID
	return nil
}

func (m memoryConnections) Update(_ context.Context, conn *domain.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.connections[conn.ID]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	delete(m.shopDomains, existing.ShopDomain)

	conn.UpdatedAt = time.Now()
	cp := *conn
	m.connections[conn.ID] = &cp
	m.shopDomains[conn.ShopDomain] = conn.ID
	return nil
}

func (m memoryConnections) GetByID(_ context.Context, id string) (*domain.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.connections[id]
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	cp := *conn
	return &cp, nil
}

func (m memoryConnections) GetByShopDomain(_ context.Context, shopDomain string) (*domain.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.shopDomains[shopDomain]
	if !ok {
		return nil, nil
	}
	cp := *m.connections[id]
	return &cp, nil
}

func (m memoryConnections) ListByTenant(_ context.Context, tenantID string) ([]*domain.Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var conns []*domain.Connection
	for _, conn := range m.connections {
		if conn.TenantID == tenantID {
			cp := *conn
			conns = append(conns, &cp)
		}
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].CreatedAt.Before(conns[j].CreatedAt) })
	return conns, nil
}

func (m memoryConnections) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	conns, _ := m.ListByTenant(ctx, tenantID)
	return len(conns), nil
}

func (m memoryConnections) SumOrdersProcessed(_ context.Context, tenantID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, conn := range m.connections {
		if conn.TenantID == tenantID {
			total += conn.TotalOrdersProcessed
		}
	}
	return total, nil
}

func (m memoryConnections) IncrementAPIRequests(_ context.Context, id string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	conn.TotalAPIRequests += delta
	conn.UpdatedAt = time.Now()
	return nil
}

func (m memoryConnections) IncrementOrdersProcessed(_ context.Context, id string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	conn.TotalOrdersProcessed += delta
	conn.UpdatedAt = time.Now()
	return nil
}

func (m memoryConnections) TouchLastWebhook(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	t := at
	conn.LastWebhookAt = &t
	return nil
}

func (m memoryConnections) TouchLastSync(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	t := at
	conn.LastSyncAt = &t
	return nil
}

func (m memoryConnections) Deactivate(_ context.Context, shopDomain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.shopDomains[shopDomain]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	m.connections[id].Active = false
	m.connections[id].UpdatedAt = time.Now()
	return nil
}

func (m memoryConnections) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[id]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	delete(m.shopDomains, conn.ShopDomain)
	delete(m.connections, id)
	return nil
}

// Order operations

type memoryOrders struct{ *MemoryStore }

func orderKey(connectionID, externalOrderID string) string {
	return connectionID + "/" + externalOrderID
}

func (m memoryOrders) Upsert(_ context.Context, order *domain.Order) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := orderKey(order.ConnectionID, order.ExternalOrderID)
	if _, exists := m.orders[key]; exists {
		return false, nil
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.CreatedAt = time.Now()
	cp := *order
	m.orders[key] = &cp
	return true, nil
}

func (m memoryOrders) ListByConnection(_ context.Context, connectionID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range m.orders {
		if o.ConnectionID == connectionID {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	return orders, nil
}

func (m memoryOrders) ListByTenant(_ context.Context, tenantID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range m.orders {
		conn, ok := m.connections[o.ConnectionID]
		if ok && conn.TenantID == tenantID {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	return orders, nil
}

// Product operations

type memoryProducts struct{ *MemoryStore }

func productKey(connectionID, externalProductID string) string {
	return connectionID + "/" + externalProductID
}

func (m memoryProducts) Upsert(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := productKey(product.ConnectionID, product.ExternalProductID)
	now := time.Now()

	if existing, ok := m.products[key]; ok {
		existing.Name = product.Name
		existing.SKU = product.SKU
		existing.Price = product.Price
		existing.Currency = product.Currency
		if product.InventoryCount != nil {
			v := *product.InventoryCount
			existing.InventoryCount = &v
		}
		if product.LowStockThreshold != nil {
			v := *product.LowStockThreshold
			existing.LowStockThreshold = &v
		}
		existing.UpdatedAt = now
		return nil
	}

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	cp := *product
	m.products[key] = &cp
	return nil
}

func (m memoryProducts) ListByConnection(_ context.Context, connectionID string) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []*domain.Product
	for _, p := range m.products {
		if p.ConnectionID == connectionID {
			cp := *p
			products = append(products, &cp)
		}
	}
	return products, nil
}

func (m memoryProducts) ListByTenant(_ context.Context, tenantID string) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []*domain.Product
	for _, p := range m.products {
		conn, ok := m.connections[p.ConnectionID]
		if ok && conn.TenantID == tenantID {
			cp := *p
			products = append(products, &cp)
		}
	}
	return products, nil
}

// Usage operations

type memoryUsage struct{ *MemoryStore }

func (m memoryUsage) Insert(_ context.Context, record *domain.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	cp := *record
	m.usage = append(m.usage, &cp)
	return nil
}

func (m memoryUsage) ListByTenant(_ context.Context, tenantID string, limit int) ([]*domain.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*domain.UsageRecord
	for i := len(m.usage) - 1; i >= 0; i-- {
		if m.usage[i].TenantID == tenantID {
			cp := *m.usage[i]
			records = append(records, &cp)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
	}
	return records, nil
}

func (m memoryUsage) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.usage[:0]
	var removed int64
	for _, r := range m.usage {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.usage = kept
	return removed, nil
}

// Tier operations

type memoryTiers struct{ *MemoryStore }

func (m memoryTiers) GetByID(_ context.Context, id string) (*domain.SubscriptionTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tier, ok := m.tiers[id]
	if !ok {
		return nil, domain.ErrTierNotFound
	}
	cp := *tier
	return &cp, nil
}

func (m memoryTiers) List(_ context.Context) ([]*domain.SubscriptionTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tiers []*domain.SubscriptionTier
	for _, t := range m.tiers {
		if t.Active {
			cp := *t
			tiers = append(tiers, &cp)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MaxOrders < tiers[j].MaxOrders })
	return tiers, nil
}

func (m memoryTiers) Save(_ context.Context, tier *domain.SubscriptionTier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *tier
	m.tiers[tier.ID] = &cp
	return nil
}

// Subscription operations

type memorySubscriptions struct{ *MemoryStore }

func (m memorySubscriptions) GetActiveByTenant(_ context.Context, tenantID string) (*domain.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscriptions {
		if sub.TenantID == tenantID && sub.Active {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}

func (m memorySubscriptions) Create(_ context.Context, sub *domain.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	cp := *sub
	m.subscriptions[sub.ID] = &cp
	return nil
}

func (m memorySubscriptions) Update(_ context.Context, sub *domain.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscriptions[sub.ID]; !ok {
		return domain.ErrSubscriptionNotFound
	}
	sub.UpdatedAt = time.Now()
	cp := *sub
	m.subscriptions[sub.ID] = &cp
	return nil
}
