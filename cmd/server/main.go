package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"rapidsite/internal/config"
	"rapidsite/internal/handler"
	"rapidsite/internal/httputil"
	"rapidsite/internal/middleware"
	"rapidsite/internal/observability"
	"rapidsite/internal/presets"
	"rapidsite/internal/repository/postgres"
	briefSvc "rapidsite/internal/service/brief"
	chatSvc "rapidsite/internal/service/chat"
	generationSvc "rapidsite/internal/service/generation"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// sessionObserver forwards terminal job outcomes into the session layer.
type sessionObserver struct {
	sessions *chatSvc.SessionService
	logger   *slog.Logger
}

func (o *sessionObserver) JobCompleted(ctx context.Context, targetID string, artifactCount int) {
	if err := o.sessions.FinishGeneration(ctx, targetID, artifactCount); err != nil {
		o.logger.Error("failed to record job completion", "target_id", targetID, "error", err)
	}
}

func (o *sessionObserver) JobFailed(ctx context.Context, targetID, jobError string) {
	if err := o.sessions.FailGeneration(ctx, targetID, jobError); err != nil {
		o.logger.Error("failed to record job failure", "target_id", targetID, "error", err)
	}
}

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

	var logOut io.Writer = os.Stdout
	if cfg.Debug {
		logFile, err := config.SetupLogFile("logs", 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

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

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	txManager := postgres.NewTransactionManager(pool)
	sessionRepo := postgres.NewSessionRepository(repoConfig, txManager)

	// Initialize preset catalogs
	presetRegistry, err := presets.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize preset registry: %v", err)
	}
	logger.Info("preset registry initialized",
		"palettes", len(presetRegistry.Palettes()),
		"font_pairings", len(presetRegistry.FontPairings()),
	)

	// Setup generation providers
	providerRegistry, err := generationSvc.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup generation providers: %v", err)
	}

	// Metrics
	metrics := observability.NewMetrics("rapidsite")

	// Create services
	aggregator := briefSvc.NewAggregator(presetRegistry, logger)
	sessions := chatSvc.NewSessionService(sessionRepo, aggregator, metrics, logger)
	bridge := chatSvc.NewBridge(sessions, logger)

	extractor := generationSvc.NewExtractor(logger)
	observer := &sessionObserver{sessions: sessions, logger: logger}
	manager := generationSvc.NewManager(
		providerRegistry,
		extractor,
		observer,
		metrics,
		cfg.DefaultModel,
		cfg.GenerationTimeout,
		config.JobRetention,
		logger,
	)

	// Periodic persistence of dirty sessions
	go sessions.StartAutosave(ctx, config.AutosaveInterval)

	// Create handlers
	sessionHandler := handler.NewSessionHandler(sessions, bridge, logger)
	generationHandler := handler.NewGenerationHandler(sessions, manager, logger)
	presetsHandler := handler.NewPresetsHandler(presetRegistry)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.MetricsHandler())

	// Session routes
	mux.HandleFunc("POST /api/sessions", sessionHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/turns", sessionHandler.AppendTurn)
	mux.HandleFunc("POST /api/sessions/{id}/selections", sessionHandler.SubmitSelection)
	mux.HandleFunc("POST /api/sessions/{id}/reset", sessionHandler.ResetSession)

	// Generation routes
	mux.HandleFunc("POST /api/generation", generationHandler.StartGeneration)
	mux.HandleFunc("GET /api/generation/{job_id}", generationHandler.GetJob)

	// Preset catalog routes
	mux.HandleFunc("GET /api/presets/palettes", presetsHandler.ListPalettes)
	mux.HandleFunc("GET /api/presets/font-pairings", presetsHandler.ListFontPairings)

	// Build middleware chain
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
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
