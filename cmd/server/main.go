package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"recordvault/internal/auth"
	"recordvault/internal/config"
	"recordvault/internal/handler"
	"recordvault/internal/httputil"
	"recordvault/internal/middleware"
	"recordvault/internal/notifier"
	"recordvault/internal/objectstore"
	"recordvault/internal/repository/postgres"
	"recordvault/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

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

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	shareRepo := postgres.NewShareRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create object store for file bytes
	s3Client, err := objectstore.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	objectStore, err := objectstore.NewS3ObjectStore(ctx, s3Client, cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Failed to connect to object store: %v", err)
	}
	logger.Info("object store connected", "bucket", cfg.Storage.Bucket)

	// Create notifier for outbound email
	mailNotifier := notifier.NewSMTPNotifier(cfg.SMTP, logger)

	// Create services
	authorizer := service.NewOwnershipAuthorizer()
	nodeService := service.NewNodeService(nodeRepo, shareRepo, objectStore, txManager, authorizer, logger, cfg.PresignTTL)
	shareService := service.NewShareService(shareRepo, nodeRepo, objectStore, authorizer, mailNotifier, logger, cfg.PublicBaseURL, cfg.ShareTTL)

	// Create handlers
	nodeHandler := handler.NewNodeHandler(nodeService, logger)
	shareHandler := handler.NewShareHandler(shareService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Public routes: health probe and share redemption (the token is the
	// credential, recipients have no account)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/shares/{token}", shareHandler.ResolveShare)

	// Authenticated routes
	protect := middleware.Auth(jwtVerifier, logger)
	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	// Node routes
	authed("GET /api/nodes", nodeHandler.ListNodes)
	authed("POST /api/nodes/folder", nodeHandler.CreateFolder)
	authed("POST /api/nodes/file", nodeHandler.CreateFile)
	authed("GET /api/nodes/{id}", nodeHandler.GetNode)
	authed("PATCH /api/nodes/{id}", nodeHandler.RenameNode)
	authed("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)
	authed("PUT /api/nodes/{id}/content", nodeHandler.UploadContent)
	authed("GET /api/nodes/{id}/download", nodeHandler.DownloadURL)

	// Share routes
	authed("POST /api/shares", shareHandler.CreateShare)

	// Build middleware chain
	var rootHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Routes
	rootHandler = middleware.Recovery(logger)(rootHandler)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	rootHandler = corsHandler.Handler(rootHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Content uploads can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
