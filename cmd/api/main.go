package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"storepulse-analytics-core/internal/application"
	"storepulse-analytics-core/internal/application/webhook_handlers"
	"storepulse-analytics-core/internal/domain"
	"storepulse-analytics-core/internal/infrastructure/magento"
	"storepulse-analytics-core/internal/infrastructure/metrics"
	appmiddleware "storepulse-analytics-core/internal/infrastructure/middleware"
	"storepulse-analytics-core/internal/infrastructure/repository"
	shopifyinfra "storepulse-analytics-core/internal/infrastructure/shopify"
	"storepulse-analytics-core/internal/infrastructure/statestore"
	"storepulse-analytics-core/internal/ports"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type repositories struct {
	connections   ports.ConnectionRepository
	orders        ports.OrderRepository
	products      ports.ProductRepository
	usage         ports.UsageRepository
	tiers         ports.TierRepository
	subscriptions ports.SubscriptionRepository
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	repos := buildRepositories(logger)

	// OAuth state store: Redis when configured, in-memory otherwise
	var stateStore ports.StateStore
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redislib.NewClient(&redislib.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		stateStore = statestore.NewRedisStore(redisClient)
		logger.Info().Str("addr", redisAddr).Msg("Using Redis OAuth state store")
	} else {
		stateStore = statestore.NewMemoryStore()
		logger.Info().Msg("Using in-memory OAuth state store")
	}

	apiKey := os.Getenv("SHOPIFY_API_KEY")
	apiSecret := os.Getenv("SHOPIFY_API_SECRET")
	webhookSecret := os.Getenv("SHOPIFY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		webhookSecret = apiSecret
	}
	if apiKey == "" || apiSecret == "" {
		logger.Fatal().Msg("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}

	shopifyClient := shopifyinfra.NewClient(apiKey, apiSecret, logger)
	magentoClient := magento.NewClient(logger)
	platformClients := map[domain.Platform]ports.PlatformClient{
		domain.PlatformShopify: shopifyClient,
		domain.PlatformMagento: magentoClient,
	}

	// Initialize application services
	subscriptionService := application.NewSubscriptionService(repos.subscriptions, repos.tiers, logger)
	if err := subscriptionService.SeedTiers(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed subscription tiers")
	}

	oauthService := application.NewOAuthService(
		repos.connections,
		stateStore,
		shopifyClient,
		subscriptionService,
		appURL+"/oauth/callback",
		logger,
	)
	connectionService := application.NewConnectionService(repos.connections, subscriptionService, logger)
	syncService := application.NewSyncService(repos.connections, repos.orders, repos.products, platformClients, logger)
	analyticsService := application.NewAnalyticsService(repos.connections, repos.orders, repos.products, logger)

	// Initialize webhook dispatcher and register topic handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.Register(domain.TopicOrdersCreate,
		webhook_handlers.NewOrderHandler(repos.orders, repos.connections, logger))
	webhookDispatcher.Register(domain.TopicProductsUpdate,
		webhook_handlers.NewProductHandler(repos.products, logger))
	webhookDispatcher.Register(domain.TopicAppUninstalled,
		webhook_handlers.NewAppUninstalledHandler(repos.connections, logger))

	webhookVerifier := shopifyinfra.NewWebhookVerifier(webhookSecret)

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	metering := appmiddleware.NewMetering(repos.usage, repos.connections, m, logger)
	planLimiter := appmiddleware.NewPlanLimiter(repos.subscriptions, repos.tiers, repos.connections, m, logger)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth routes (tenant-authenticated and metered; callback is reached by
	// redirect and carries the tenant inside the stored state)
	r.With(appmiddleware.TenantAuth(logger), metering.Handler).
		Get("/oauth/begin", oauthBeginHandler(oauthService, logger))
	r.Get("/oauth/callback", oauthCallbackHandler(oauthService, logger))

	// Webhook endpoint (platform-facing, HMAC-authenticated)
	r.Post("/webhooks", webhookHandler(webhookVerifier, webhookDispatcher, repos.connections, m, logger))

	// Authenticated API: metered, quota-gated
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(appmiddleware.TenantAuth(logger))
		api.Use(metering.Handler)
		api.Use(planLimiter.Handler)

		api.Get("/connections", listConnectionsHandler(connectionService))
		api.Post("/connections", createConnectionHandler(connectionService))
		api.Delete("/connections/{id}", deleteConnectionHandler(connectionService))
		api.Post("/connections/{id}/sync", syncHandler(syncService))

		api.Get("/orders", listOrdersHandler(repos.orders))
		api.Get("/products", listProductsHandler(repos.products))

		api.Get("/analytics/summary", summaryHandler(analyticsService))
		api.Get("/analytics/alerts", alertsHandler(analyticsService))

		// Exempt from the plan limiter so an over-quota tenant can still
		// manage their account
		api.Get("/subscription", subscriptionHandler(subscriptionService))
		api.Get("/subscription/tiers", tiersHandler(subscriptionService))
		api.Post("/subscription/cancel", cancelSubscriptionHandler(subscriptionService))
		api.Get("/me", meHandler())
	})
	r.With(appmiddleware.TenantAuth(logger), metering.Handler).Post("/auth/logout", logoutHandler())

	// Usage-record retention: opt-in daily pruning
	if days, _ := strconv.Atoi(os.Getenv("USAGE_RETENTION_DAYS")); days > 0 {
		go runUsageRetention(repos.usage, days, logger)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// buildRepositories selects the storage backend from the environment:
// MongoDB by default, in-memory with STORAGE_BACKEND=memory.
func buildRepositories(logger zerolog.Logger) repositories {
	if os.Getenv("STORAGE_BACKEND") == "memory" {
		logger.Warn().Msg("Using in-memory storage, data will not survive restarts")
		store := repository.NewMemoryStore()
		return repositories{
			connections:   store.Connections(),
			orders:        store.Orders(),
			products:      store.Products(),
			usage:         store.Usage(),
			tiers:         store.Tiers(),
			subscriptions: store.Subscriptions(),
		}
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "storepulse"
	}
	db := client.Database(dbName)

	return repositories{
		connections:   repository.NewMongoConnectionRepository(db),
		orders:        repository.NewMongoOrderRepository(db),
		products:      repository.NewMongoProductRepository(db),
		usage:         repository.NewMongoUsageRepository(db),
		tiers:         repository.NewMongoTierRepository(db),
		subscriptions: repository.NewMongoSubscriptionRepository(db),
	}
}

func runUsageRetention(usageRepo ports.UsageRepository, days int, logger zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().AddDate(0, 0, -days)
		removed, err := usageRepo.DeleteOlderThan(context.Background(), cutoff)
		if err != nil {
			logger.Error().Err(err).Msg("Usage retention pruning failed")
			continue
		}
		logger.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Pruned usage records")
	}
}

// oauthBeginHandler starts the OAuth flow for the authenticated tenant
func oauthBeginHandler(oauthService *application.OAuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID := domain.GetTenantIDFromContext(ctx)
		shop := r.URL.Query().Get("shop")

		authURL, err := oauthService.Begin(ctx, tenantID, shop)
		if err != nil {
			writeError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"url":     authURL,
		})
	}
}

// oauthCallbackHandler completes the OAuth flow
func oauthCallbackHandler(oauthService *application.OAuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		state := r.URL.Query().Get("state")
		shop := r.URL.Query().Get("shop")
		code := r.URL.Query().Get("code")
		if state == "" || shop == "" || code == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "missing required parameters",
			})
			return
		}

		conn, err := oauthService.Complete(ctx, state, shop, code)
		if err != nil {
			writeError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"connection": conn,
		})
	}
}

// webhookHandler verifies and dispatches platform webhooks
func webhookHandler(
	verifier *shopifyinfra.WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	connRepo ports.ConnectionRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		topic := r.Header.Get("X-Shopify-Topic")
		shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
		if topic == "" || shopDomain == "" {
			logger.Warn().Msg("Webhook missing topic or shop-domain header")
			http.Error(w, "missing required headers", http.StatusUnauthorized)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		signature := r.Header.Get("X-Shopify-Hmac-SHA256")
		if err := verifier.Verify(payload, signature); err != nil {
			logger.Warn().Str("shop", shopDomain).Str("topic", topic).Msg("Webhook signature verification failed")
			m.WebhooksTotal.WithLabelValues(topic, "rejected").Inc()
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		// Signature and headers are valid: from here on the platform always
		// gets a 200. Retries cannot fix a malformed payload, and a
		// non-success answer only triggers a redelivery storm.
		conn, err := connRepo.GetByShopDomain(ctx, shopDomain)
		if err != nil || conn == nil {
			logger.Warn().Err(err).Str("shop", shopDomain).Msg("No connection for webhook shop domain")
			m.WebhooksTotal.WithLabelValues(topic, "orphaned").Inc()
			acknowledge(w)
			return
		}

		if err := connRepo.TouchLastWebhook(ctx, conn.ID, time.Now()); err != nil {
			logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to stamp webhook time")
		}

		event := &domain.WebhookEvent{
			Topic:        topic,
			ShopDomain:   shopDomain,
			ConnectionID: conn.ID,
			TenantID:     conn.TenantID,
			Payload:      payload,
		}
		if err := dispatcher.Dispatch(ctx, event); err != nil {
			logger.Error().Err(err).
				Str("topic", topic).
				Str("shop", shopDomain).
				Msg("Webhook processing failed")
			m.WebhooksTotal.WithLabelValues(topic, "failed").Inc()
			acknowledge(w)
			return
		}

		m.WebhooksTotal.WithLabelValues(topic, "processed").Inc()
		acknowledge(w)
	}
}

func acknowledge(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"received": "true"})
}

func listConnectionsHandler(svc *application.ConnectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conns, err := svc.List(r.Context(), domain.GetTenantIDFromContext(r.Context()))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"connections": conns})
	}
}

func createConnectionHandler(svc *application.ConnectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input application.CreateManualInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		conn, err := svc.CreateManual(r.Context(), domain.GetTenantIDFromContext(r.Context()), input)
		if err != nil {
			writeError(w, err, zerolog.Nop())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"connection": conn})
	}
}

func deleteConnectionHandler(svc *application.ConnectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.Delete(r.Context(), domain.GetTenantIDFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err, zerolog.Nop())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func syncHandler(svc *application.SyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Sync(r.Context(), domain.GetTenantIDFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err, zerolog.Nop())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func listOrdersHandler(orderRepo ports.OrderRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var (
			orders []*domain.Order
			err    error
		)
		if connectionID := r.URL.Query().Get("connection_id"); connectionID != "" {
			orders, err = orderRepo.ListByConnection(ctx, connectionID)
		} else {
			orders, err = orderRepo.ListByTenant(ctx, domain.GetTenantIDFromContext(ctx))
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
	}
}

func listProductsHandler(productRepo ports.ProductRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var (
			products []*domain.Product
			err      error
		)
		if connectionID := r.URL.Query().Get("connection_id"); connectionID != "" {
			products, err = productRepo.ListByConnection(ctx, connectionID)
		} else {
			products, err = productRepo.ListByTenant(ctx, domain.GetTenantIDFromContext(ctx))
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
	}
}

func summaryHandler(svc *application.AnalyticsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summarize(r.Context(), domain.GetTenantIDFromContext(r.Context()))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func alertsHandler(svc *application.AnalyticsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.LowStockAlerts(r.Context(), domain.GetTenantIDFromContext(r.Context()))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
	}
}

func subscriptionHandler(svc *application.SubscriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub, err := svc.GetOrCreate(ctx, domain.GetTenantIDFromContext(ctx))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"subscription": sub,
			"expired":      sub.Expired(time.Now()),
		})
	}
}

func tiersHandler(svc *application.SubscriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tiers, err := svc.ListTiers(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"tiers": tiers})
	}
}

func cancelSubscriptionHandler(svc *application.SubscriptionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Cancel(r.Context(), domain.GetTenantIDFromContext(r.Context())); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"tenant_id": domain.GetTenantIDFromContext(r.Context()),
		})
	}
}

func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// writeError maps domain errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	if qe, ok := domain.IsQuotaExceeded(err); ok {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"success": false,
			"message": qe.Error(),
			"limit":   qe.Limit,
			"usage":   qe.Usage,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrOAuthStateMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrShopAlreadyConnected):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrConnectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTierNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
