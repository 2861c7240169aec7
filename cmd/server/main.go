package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gottadoit/internal/config"
	"gottadoit/internal/dbops"
	"gottadoit/internal/handler"
	"gottadoit/internal/metrics"
	"gottadoit/internal/middleware"
	"gottadoit/internal/repository/postgres"
	redisrepo "gottadoit/internal/repository/redis"
	"gottadoit/internal/service/onboarding"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	flowRepo := postgres.NewFlowRepository(repoConfig)
	progressRepo := postgres.NewProgressRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Optional Redis read-through cache for flow documents
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		flowRepo = redisrepo.NewFlowCache(flowRepo, redisClient, logger)
		logger.Info("flow cache enabled", "redis_addr", cfg.RedisAddr)
	}

	// Initialize database operations registry
	opsRegistry, err := dbops.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize operations registry: %v", err)
	}
	logger.Info("operations registry initialized", "operations", len(opsRegistry.List()))

	// Create services
	effectRunner := onboarding.NewEffectRunner(cfg.DBProxyURL, logger)
	flowService := onboarding.NewFlowService(flowRepo, logger)
	stateService := onboarding.NewStateService(
		flowRepo,
		progressRepo,
		txManager,
		effectRunner,
		opsRegistry,
		cfg.EntryNodeID,
		logger,
	)

	// Create handlers
	flowHandler := handler.NewFlowHandler(flowService, logger)
	stateHandler := handler.NewUserStateHandler(stateService, logger)
	editorHandler := handler.NewEditorHandler(flowService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())

	// Flow routes
	mux.HandleFunc("GET /api/orgs/{orgID}/onboarding-flow", flowHandler.GetFlow)
	mux.HandleFunc("POST /api/orgs/{orgID}/onboarding-flow", flowHandler.PublishFlow)

	// User state routes
	mux.HandleFunc("GET /api/orgs/{orgID}/onboarding-user-state/{userID}", stateHandler.GetState)
	mux.HandleFunc("POST /api/orgs/{orgID}/onboarding-user-state/{userID}", stateHandler.UpdateState)
	mux.HandleFunc("GET /api/orgs/{orgID}/onboarding-user-state/{userID}/current-node", stateHandler.GetCurrentNode)
	mux.HandleFunc("POST /api/orgs/{orgID}/onboarding-user-state/{userID}/dispatch", stateHandler.Dispatch)

	// Editor routes
	mux.HandleFunc("GET /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}", editorHandler.GetNode)
	mux.HandleFunc("PUT /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}", editorHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}", editorHandler.DeleteNode)
	mux.HandleFunc("POST /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}/children", editorHandler.AddChild)
	mux.HandleFunc("POST /api/orgs/{orgID}/onboarding-flow/nodes/{nodeID}/siblings", editorHandler.AddSibling)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestLog → Recovery → Routes
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestLog(logger)(root)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
