package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/ports"

	"github.com/rs/zerolog"
)

// OrderHandler ingests orders/create webhook events.
type OrderHandler struct {
	orderRepo ports.OrderRepository
	connRepo  ports.ConnectionRepository
	logger    zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(
	orderRepo ports.OrderRepository,
	connRepo ports.ConnectionRepository,
	logger zerolog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderRepo: orderRepo,
		connRepo:  connRepo,
		logger:    logger,
	}
}

type orderPayload struct {
	ID              int64  `json:"id"`
	OrderNumber     int64  `json:"order_number"`
	TotalPrice      string `json:"total_price"`
	Currency        string `json:"currency"`
	FinancialStatus string `json:"financial_status"`
	CreatedAt       string `json:"created_at"`
	Customer        *struct {
		ID int64 `json:"id"`
	} `json:"customer"`
}

// Handle normalizes the platform order payload and upserts it. The counter
// increments only when a row was actually inserted, so redelivering the
// same webhook never double-counts.
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload orderPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse order webhook payload: %w", err)
	}
	if payload.ID == 0 {
		return fmt.Errorf("order webhook payload has no id")
	}

	total, _ := strconv.ParseFloat(payload.TotalPrice, 64)
	order := &domain.Order{
		ConnectionID:    event.ConnectionID,
		ExternalOrderID: strconv.FormatInt(payload.ID, 10),
		OrderNumber:     strconv.FormatInt(payload.OrderNumber, 10),
		TotalAmount:     total,
		Currency:        payload.Currency,
		Status:          domain.OrderStatusFromFinancial(payload.FinancialStatus),
	}
	if payload.Customer != nil {
		order.ExternalCustomerID = strconv.FormatInt(payload.Customer.ID, 10)
	}
	if t, err := time.Parse(time.RFC3339, payload.CreatedAt); err == nil {
		order.PlacedAt = t
	} else {
		order.PlacedAt = time.Now()
	}

	inserted, err := h.orderRepo.Upsert(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	if !inserted {
		h.logger.Debug().
			Str("shop", event.ShopDomain).
			Str("orderId", order.ExternalOrderID).
			Msg("Order already ingested, skipping redelivery")
		return nil
	}

	if err := h.connRepo.IncrementOrdersProcessed(ctx, event.ConnectionID, 1); err != nil {
		return fmt.Errorf("failed to increment order counter: %w", err)
	}

	if err := h.connRepo.TouchLastSync(ctx, event.ConnectionID, time.Now()); err != nil {
		h.logger.Warn().Err(err).Str("shop", event.ShopDomain).Msg("Failed to stamp sync time")
	}

	h.logger.Info().
		Str("shop", event.ShopDomain).
		Str("orderId", order.ExternalOrderID).
		Str("status", string(order.Status)).
		Msg("Ingested order from webhook")

	return nil
}
