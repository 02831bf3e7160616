// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/ammerola/boxwise-be/internal/adapters/db"
	redis_a "github.com/ammerola/boxwise-be/internal/adapters/redis_adapter"
	"github.com/ammerola/boxwise-be/internal/adapters/storage"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/core/services"
	"github.com/ammerola/boxwise-be/internal/handlers"
	"github.com/ammerola/boxwise-be/internal/handlers/middleware"
	"github.com/ammerola/boxwise-be/internal/imaging"
	"github.com/ammerola/boxwise-be/internal/pkg/config"
	"github.com/ammerola/boxwise-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

// localFilesPath serves LocalStorage objects in development
const localFilesPath = "/files/"

func main() {
	// Initialize structured logger
	slogger := logger.SetupLogger("debug", "json", "boxwise-api")

	slogger.Info("starting boxwise inventory api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	// Load configuration
	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Name)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	// Run database migrations outside production
	if !cfg.IsProduction() {
		if err := runMigrations(ctx, cfg, slogger.Logger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	storage        ports.FileStorage
	localFiles     http.Handler
	preferences    *services.PreferenceService

	itemHandler       *handlers.ItemHandler
	attachmentHandler *handlers.AttachmentHandler
	preferenceHandler *handlers.PreferenceHandler
	reportHandler     *handlers.ReportHandler
	importHandler     *handlers.ImportHandler
	statsHandler      *handlers.StatsHandler
	healthHandler     *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.preferences != nil {
		d.preferences.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
		ConnectRetries:     5,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		ConnMaxLifetime: cfg.Redis.MaxConnAge,
		PoolTimeout:     cfg.Redis.PoolTimeout,
		ConnMaxIdleTime: cfg.Redis.IdleTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	fileStorage, localFS, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.storage = fileStorage
	if localFS != nil {
		deps.localFiles = http.StripPrefix(localFilesPath,
			http.FileServer(afero.NewHttpFs(localFS).Dir(cfg.Uploads.LocalStorageDir)))
	}

	compressor, err := imaging.NewCompressor(imaging.Options{
		Quality:  cfg.Uploads.CompressQuality,
		Floor:    cfg.Uploads.CompressFloor,
		Step:     cfg.Uploads.CompressStep,
		MaxWidth: cfg.Uploads.CompressMaxWidth,
	}, logger)
	if err != nil {
		return nil, err
	}

	// Repositories
	itemRepo := db.NewItemRepository(database, logger)
	attachmentRepo := db.NewAttachmentRepository(database, logger)
	preferenceRepo := db.NewPreferenceRepository(database, logger)

	// Services
	itemService := services.NewItemService(itemRepo, cache, cfg.Search.ListCacheTTL, logger)
	attachmentService := services.NewAttachmentService(attachmentRepo, itemRepo, fileStorage, compressor, cfg.Uploads.CompressWorkers, logger)
	reportService := services.NewReportService(itemRepo, logger)
	deps.preferences, err = services.NewPreferenceService(preferenceRepo, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preferences: %w", err)
	}

	// Handlers
	deps.itemHandler = handlers.NewItemHandler(itemService, logger)
	deps.attachmentHandler = handlers.NewAttachmentHandler(attachmentService, cfg.AWS.PresignExpiry, logger)
	deps.preferenceHandler = handlers.NewPreferenceHandler(deps.preferences, logger)
	deps.reportHandler = handlers.NewReportHandler(reportService, fileStorage, deps.asynqClient, deps.asynqInspector, cfg.AWS.PresignExpiry, logger)
	deps.importHandler = handlers.NewImportHandler(fileStorage, deps.asynqClient, deps.asynqInspector, int64(cfg.Uploads.ImportMaxSizeMB)<<20, logger)
	deps.statsHandler = handlers.NewStatsHandler(itemService, logger)

	deps.healthHandler = handlers.NewHealthHandler(cfg.App.Version, cfg.App.Environment, logger)
	deps.healthHandler.Register("database", handlers.DatabaseCheck(database))
	deps.healthHandler.Register("redis", handlers.RedisCheck(redisClient))
	deps.healthHandler.Register("queue", handlers.QueueCheck(deps.asynqInspector))
	deps.healthHandler.Register("storage", handlers.StorageCheck(fileStorage))

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initStorage picks S3 unless running in development without an S3 endpoint,
// in which case objects live on disk and are served under /files/.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.FileStorage, afero.Fs, error) {
	if cfg.IsDevelopment() && cfg.AWS.S3Endpoint == "" {
		fs := afero.NewOsFs()
		if err := fs.MkdirAll(cfg.Uploads.LocalStorageDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create local storage dir: %w", err)
		}
		baseURL := fmt.Sprintf("http://%s%s", cfg.GetServerAddress(), localFilesPath)
		logger.Info("using local file storage", slog.String("path", cfg.Uploads.LocalStorageDir))
		return storage.NewLocalStorage(fs, cfg.Uploads.LocalStorageDir, baseURL, logger), fs, nil
	}

	s3Storage, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return s3Storage, nil, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, slogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	// Wrapped innermost first; RequestID ends up outermost
	var handler http.Handler = mux
	handler = middleware.Compression(handler)
	if cfg.Security.RequestTimeout > 0 {
		handler = middleware.Timeout(cfg.Security.RequestTimeout)(handler)
	}
	if cfg.Security.RateLimitRequests > 0 {
		handler = middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)(handler)
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		handler = middleware.CORS(cfg.Security.AllowedOrigins)(handler)
	}
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}
	handler = middleware.Recovery(slogger.Logger)(handler)
	handler = middleware.Logger(slogger)(handler)
	handler = middleware.RequestID(handler)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	// Health and readiness endpoints
	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)
	}

	// Items
	mux.HandleFunc("GET "+apiV1+"/items", deps.itemHandler.ListItems)
	mux.HandleFunc("POST "+apiV1+"/items", deps.itemHandler.CreateItem)
	mux.HandleFunc("GET "+apiV1+"/items/{id}", deps.itemHandler.GetItem)
	mux.HandleFunc("PUT "+apiV1+"/items/{id}", deps.itemHandler.UpdateItem)
	mux.HandleFunc("PATCH "+apiV1+"/items/{id}/quantity", deps.itemHandler.UpdateQuantity)
	mux.HandleFunc("DELETE "+apiV1+"/items/{id}", deps.itemHandler.DeleteItem)

	// Attachments
	mux.HandleFunc("POST "+apiV1+"/items/{id}/attachments", deps.attachmentHandler.Upload)
	mux.HandleFunc("GET "+apiV1+"/items/{id}/attachments", deps.attachmentHandler.List)
	mux.HandleFunc("GET "+apiV1+"/attachments/{id}/url", deps.attachmentHandler.DownloadURL)
	mux.HandleFunc("DELETE "+apiV1+"/attachments/{id}", deps.attachmentHandler.Delete)

	// Import
	mux.HandleFunc("POST "+apiV1+"/items/import", deps.importHandler.ImportItems)
	mux.HandleFunc("GET "+apiV1+"/items/import/{id}", deps.importHandler.ImportStatus)

	// Reports
	mux.HandleFunc("GET "+apiV1+"/reports/items.xlsx", deps.reportHandler.ExportItems)
	mux.HandleFunc("POST "+apiV1+"/reports", deps.reportHandler.RequestReport)
	mux.HandleFunc("GET "+apiV1+"/reports/{id}", deps.reportHandler.GetReport)

	// Preferences and stats
	mux.HandleFunc("GET "+apiV1+"/preferences/{key}", deps.preferenceHandler.Get)
	mux.HandleFunc("PUT "+apiV1+"/preferences/{key}", deps.preferenceHandler.Put)
	mux.HandleFunc("GET "+apiV1+"/stats", deps.statsHandler.GetStats)

	if deps.localFiles != nil {
		mux.Handle("GET "+localFilesPath, deps.localFiles)
	}

	// pprof endpoints (development only)
	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.DefaultServeMux.ServeHTTP)
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}

	return db.RunMigrationsWithRetry(ctx, migrationConfig, logger, 3)
}
