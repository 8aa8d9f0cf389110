package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"visualexpr/internal/auth"
	"visualexpr/internal/config"
	exprRepo "visualexpr/internal/domain/repositories/expression"
	"visualexpr/internal/handler"
	"visualexpr/internal/handler/sse"
	"visualexpr/internal/middleware"
	"visualexpr/internal/repository/memory"
	"visualexpr/internal/repository/postgres"
	postgresExpr "visualexpr/internal/repository/postgres/expression"
	"visualexpr/internal/repository/sqlite"
	serviceExpr "visualexpr/internal/service/expression"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" || cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, config.MaxLogFiles)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bearer auth is optional; without it every request belongs to DEFAULT_OWNER
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		jwtVerifier = v
	} else {
		logger.Warn("JWKS_URL not set, requests are attributed to the default owner", "owner", cfg.DefaultOwner)
	}

	workspaceRepo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open workspace storage: %v", err)
	}
	defer closeRepo()

	// Palette catalog (embedded unless PALETTE_FILE is set)
	catalog, err := serviceExpr.NewCatalog(cfg.PaletteFile, logger)
	if err != nil {
		log.Fatalf("Failed to load palette catalog: %v", err)
	}
	if cfg.PaletteFile != "" {
		if err := catalog.Watch(ctx); err != nil {
			logger.Warn("palette file will not be reloaded", "path", cfg.PaletteFile, "error", err)
		}
	}

	// Event hubs: check every minute, drop hubs idle for ten
	hubs := serviceExpr.NewHubRegistry(time.Minute, 10*time.Minute, logger)
	go hubs.StartCleanup(ctx)

	loader := serviceExpr.NewEngineLoader(cfg.ParseCacheSize)
	workspaceService := serviceExpr.NewWorkspaceService(workspaceRepo, catalog, loader, hubs, cfg.EditorCacheSize, logger)

	logger.Info("services initialized")

	// Handlers
	sseConfig := sse.DefaultConfig()
	sseConfig.KeepAliveInterval = cfg.SSEKeepAlive

	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, logger)
	sseHandler := handler.NewSSEHandler(workspaceService, sseConfig, logger)
	paletteHandler := handler.NewPaletteHandler(catalog)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, workspaceHandler, sseHandler, paletteHandler)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → RateLimit → Compression → Routes
	h = middleware.Compression(cfg.CompressionLevel, logger)(h)
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, 10*time.Minute, logger)
		go limiter.StartCleanup(ctx, time.Minute)
		h = limiter.Middleware(h)
	}
	h = middleware.AuthMiddleware(jwtVerifier, cfg.DefaultOwner, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID", middleware.OwnerHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete", "error", err)
		_ = server.Close()
	}
	logger.Info("server stopped")
}

// openRepository picks the workspace store: Postgres when DATABASE_URL is
// set, SQLite when SQLITE_PATH is set, memory otherwise.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (exprRepo.WorkspaceRepository, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connected", "driver", "postgres", "max_conns", pool.Config().MaxConns)
		repo := postgresExpr.NewWorkspaceRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		return repo, closePool(pool), nil

	case cfg.SQLitePath != "":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connected", "driver", "sqlite", "path", cfg.SQLitePath)
		return sqlite.NewWorkspaceRepository(db, logger), closeDB(db, logger), nil

	default:
		logger.Warn("no database configured, workspaces are kept in memory")
		return memory.NewWorkspaceRepository(), func() {}, nil
	}
}

func closePool(pool *pgxpool.Pool) func() {
	return pool.Close
}

func closeDB(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn("close sqlite", "error", err)
		}
	}
}
