package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"meridian-core-woo-layer/internal/application/attribution"
	syncapp "meridian-core-woo-layer/internal/application/sync"
	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/infrastructure/dispatch"
	"meridian-core-woo-layer/internal/infrastructure/metrics"
	"meridian-core-woo-layer/internal/infrastructure/pubsub"
	"meridian-core-woo-layer/internal/infrastructure/repository"
	"meridian-core-woo-layer/internal/infrastructure/search"
	"meridian-core-woo-layer/internal/infrastructure/woocommerce"
	"meridian-core-woo-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}
	if level, err := zerolog.ParseLevel(envOr("LOG_LEVEL", "info")); err == nil {
		logger = logger.Level(level)
	}

	mongoURI := envOr("MONGODB_URI", "mongodb://localhost:27017")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	listenAddr := envOr("LISTEN_ADDR", ":8090")

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(envOr("MONGODB_DATABASE", "meridian_sync"))

	// Connect to Redis
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	defer redisClient.Close()

	// Initialize repositories
	store := repository.NewMongoStore(db)
	states := repository.NewMongoSyncStateRepository(db)
	audit := repository.NewMongoAuditLog(db)
	tenantConfigs := repository.NewMongoTenantConfigRepository(db)

	// Initialize downstream mirrors
	notifier := pubsub.NewRedisStatusNotifier(redisClient, logger)
	bus := pubsub.NewRedisEventBus(redisClient, logger)
	index := search.NewRedisIndex(redisClient, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Review attribution resolves variation parents through the store
	matcher := attribution.NewMatcher(func(ctx context.Context, tenantID string, variationID int64) (int64, error) {
		product, err := store.GetProduct(ctx, tenantID, variationID)
		if err != nil {
			return 0, err
		}
		if product == nil {
			return 0, nil
		}
		return product.ParentID, nil
	}, logger)

	// Entity strategies and the orchestrator
	strategies := []syncapp.Strategy{
		syncapp.NewOrderSync(store, states, bus, index, logger),
		syncapp.NewProductSync(store, states, bus, index, logger),
		syncapp.NewCustomerSync(store, states, bus, index, logger),
		syncapp.NewReviewSync(store, states, bus, index, matcher, logger),
	}
	runner := syncapp.NewRunner(states, notifier, syncMetrics, logger)

	retryConfig := woocommerce.DefaultRetryConfig()
	retryConfig.OnThrottle = syncMetrics.AddThrottleRetry
	dispatcher := dispatch.NewDispatcher(runner, strategies, tenantConfigs, func(config *domain.TenantConfig) ports.RemoteClient {
		return woocommerce.NewClientWithOptions(woocommerce.ConfigFromTenant(config), audit, retryConfig, logger)
	}, logger)

	// Scheduler: frequent incremental passes plus a nightly full pass
	tenants := splitList(os.Getenv("SYNC_TENANTS"))
	scheduler, err := dispatch.NewScheduler(
		dispatcher,
		tenants,
		envOr("SYNC_INCREMENTAL_SPEC", "*/15 * * * *"),
		envOr("SYNC_FULL_SPEC", "30 3 * * *"),
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build sync scheduler")
	}
	if len(tenants) == 0 {
		logger.Warn().Msg("SYNC_TENANTS is empty, scheduler has nothing to sync")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Ops HTTP surface: health + metrics only
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", listenAddr).Msg("Ops server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ops server failed")
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Ops server shutdown failed")
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
