package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herbal-market-backend/config"
	_ "herbal-market-backend/docs" // Important for Swagger
	v1 "herbal-market-backend/internal/delivery/http/v1"
	"herbal-market-backend/internal/domain"
	"herbal-market-backend/internal/repository/memory"
	"herbal-market-backend/internal/repository/postgres"
	"herbal-market-backend/internal/stream"
	"herbal-market-backend/internal/usecase"
	"herbal-market-backend/pkg/auth"
	"herbal-market-backend/pkg/database"
	"herbal-market-backend/pkg/logger"
	"herbal-market-backend/pkg/redis"
	"herbal-market-backend/pkg/security"
	"herbal-market-backend/pkg/telemetry"
	"herbal-market-backend/pkg/validation"
)

const serviceName = "herbal-market-backend"

type repositories struct {
	principals domain.PrincipalRepository
	products   domain.ProductRepository
	orders     domain.OrderRepository
	channels   domain.ChannelRepository
	messages   domain.MessageRepository
}

// @title           Herbal Market API
// @version         1.0
// @description     Plant-care marketplace: listings, orders and buyer/provider messaging.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers and tracing
	logger.Init()
	logger.Log.Info("Starting herbal market backend", "port", cfg.Port, "store", cfg.StoreDriver)
	securityLogger := security.InitSecurityLogger(serviceName, cfg.AppEnv)
	defer securityLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Log.Warn("Tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	healthChecks := map[string]usecase.HealthCheck{}

	// 3. Setup Store
	var repos repositories
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Log.Warn("Using the in-memory store; data is lost on restart")
		store := memory.NewStore()
		repos = repositories{
			principals: memory.NewUserRepository(store),
			products:   memory.NewProductRepository(store),
			orders:     memory.NewOrderRepository(store),
			channels:   memory.NewChannelRepository(store),
			messages:   memory.NewMessageRepository(store),
		}
	default:
		dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		repos = repositories{
			principals: postgres.NewUserRepository(dbPool),
			products:   postgres.NewProductRepository(dbPool),
			orders:     postgres.NewOrderRepository(dbPool),
			channels:   postgres.NewChannelRepository(dbPool),
			messages:   postgres.NewMessageRepository(dbPool),
		}
		healthChecks["database"] = dbPool.Ping
	}

	// 4. Setup Stream fan-out
	hub := stream.NewHub(repos.messages.ListByChannel)
	var publisher domain.StreamPublisher = hub

	err = redis.Initialize(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
	switch {
	case err == nil:
		defer redis.Close()
		bridge := stream.NewRedisBridge(redis.Client(), hub)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				logger.Log.Error("Stream bridge stopped", "error", err)
			}
		}()
		healthChecks["redis"] = redis.HealthCheck
	case errors.Is(err, redis.ErrNotConfigured):
		logger.Log.Info("Redis not configured; stream fan-out and rate limits stay in-process")
	default:
		logger.Log.Warn("Redis unavailable; stream fan-out and rate limits stay in-process", "error", err)
	}

	// 5. Setup UseCases
	identityUC := usecase.NewIdentityUsecase(repos.principals)
	catalogUC := usecase.NewCatalogUsecase(repos.products, validation.New())
	orderUC := usecase.NewOrderUsecase(repos.orders, repos.products)
	exportUC := usecase.NewOrderExportUsecase(orderUC)
	channelUC := usecase.NewChannelUsecase(repos.channels, repos.messages, repos.orders)
	messageUC := usecase.NewMessageUsecase(repos.messages, repos.channels, publisher, hub)
	healthUC := usecase.NewHealthUsecase(healthChecks)

	// 6. Setup Token Verification
	// Supabase URL is like https://xyz.supabase.co
	var jwksProvider *auth.Provider
	if cfg.SupabaseUrl != "" {
		jwksProvider = auth.NewProvider(cfg.SupabaseUrl + "/auth/v1/.well-known/jwks.json")
	}
	verifier := auth.NewVerifier(cfg.SupabaseJWTSecret, jwksProvider)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		IdentityUC: identityUC,
		CatalogUC:  catalogUC,
		OrderUC:    orderUC,
		ExportUC:   exportUC,
		ChannelUC:  channelUC,
		MessageUC:  messageUC,
		HealthUC:   healthUC,
		Verifier:   verifier,
		Config:     cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
