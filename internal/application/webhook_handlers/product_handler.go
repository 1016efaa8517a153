package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// ProductHandler ingests products/update webhook events.
type ProductHandler struct {
	productRepo ports.ProductRepository
	logger      zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(productRepo ports.ProductRepository, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		productRepo: productRepo,
		logger:      logger,
	}
}

type productPayload struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Variants []struct {
		SKU               string `json:"sku"`
		Price             string `json:"price"`
		InventoryQuantity *int64 `json:"inventory_quantity"`
	} `json:"variants"`
}

// Handle normalizes the platform product payload and upserts it by
// (connection, external product id): a known product has its mutable fields
// updated in place, an unseen one is inserted.
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload productPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}
	if payload.ID == 0 {
		return fmt.Errorf("product webhook payload has no id")
	}

	product := &domain.Product{
		ConnectionID:      event.ConnectionID,
		ExternalProductID: strconv.FormatInt(payload.ID, 10),
		Name:              payload.Title,
	}
	if len(payload.Variants) > 0 {
		v := payload.Variants[0]
		product.SKU = v.SKU
		product.Price, _ = strconv.ParseFloat(v.Price, 64)
		if v.InventoryQuantity != nil {
			qty := *v.InventoryQuantity
			product.InventoryCount = &qty
		}
	}

	if err := h.productRepo.Upsert(ctx, product); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	h.logger.Info().
		Str("shop", event.ShopDomain).
		Str("productId", product.ExternalProductID).
		Str("title", product.Name).
		Msg("Upserted product from webhook")

	return nil
}
