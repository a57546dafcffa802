// Package main is the entrypoint for the reeltrack API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reeltrack/reeltrack/internal/cache"
	"github.com/reeltrack/reeltrack/internal/config"
	"github.com/reeltrack/reeltrack/internal/handler"
	"github.com/reeltrack/reeltrack/internal/identity"
	"github.com/reeltrack/reeltrack/internal/metrics"
	"github.com/reeltrack/reeltrack/internal/middleware"
	"github.com/reeltrack/reeltrack/internal/repository"
	"github.com/reeltrack/reeltrack/internal/repository/dynamo"
	"github.com/reeltrack/reeltrack/internal/repository/memory"
	"github.com/reeltrack/reeltrack/internal/server"
	"github.com/reeltrack/reeltrack/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("backend", cfg.StorageBackend),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("store ready", slog.String("backend", cfg.StorageBackend))

	var cacheClient *cache.Cache
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			closeStore()
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		logger.Error("failed to create verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.AuthMode == config.AuthModeDev {
		logger.Warn("dev auth mode enabled; tokens are not verified")
	}

	recorder := metrics.NewInMemory()

	r := setupRouter(dependencies{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		cache:    cacheClient,
		verifier: verifier,
		metrics:  recorder,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error {
		closeStore()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
		slog.String("auth_mode", cfg.AuthMode),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case config.StorageDynamoDB:
		store, err := dynamo.New(ctx, dynamo.Config{
			Region:     cfg.AWSRegion,
			Endpoint:   cfg.DynamoDBEndpoint,
			UsersTable: cfg.DynamoDBUsersTable,
			ListsTable: cfg.DynamoDBListsTable,
			OwnerIndex: cfg.DynamoDBListsOwnerIndex,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.StorageMemory:
		return memory.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageBackend, cfg.StorageBackend)
	}
}

func newVerifier(ctx context.Context, cfg *config.Config) (identity.Verifier, error) {
	if cfg.AuthMode == config.AuthModeDev {
		return identity.NewDevVerifier(), nil
	}
	return identity.NewFirebaseVerifier(ctx, identity.FirebaseConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
	})
}

type dependencies struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repository.Store
	cache    *cache.Cache // nil when Redis is not configured
	verifier identity.Verifier
	metrics  *metrics.InMemoryRecorder
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps dependencies) *chi.Mux {
	cfg, logger := deps.cfg, deps.logger

	userService := service.NewUserService(deps.store, deps.metrics)
	listService := service.NewListService(deps.store, deps.metrics)

	h := handler.New(logger)
	userHandler := handler.NewUserHandler(userService, logger)
	listHandler := handler.NewListHandler(userService, listService, logger)
	metricsHandler := handler.NewMetricsHandler(deps.metrics)

	storeDep := handler.Dependency{Name: cfg.StorageBackend, Checker: deps.store}
	redisDep := handler.Dependency{Name: "redis"}
	authCfg := middleware.AuthConfig{
		Logger:   logger,
		Verifier: deps.verifier,
		Metrics:  deps.metrics,
	}
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Metrics:      deps.metrics,
		Enabled:      cfg.RateLimitEnabled,
		IPRPS:        cfg.RateLimitRPS,
		IPBurst:      cfg.RateLimitBurst,
		SubjectRPM:   cfg.RateLimitSubjectRPM,
		SubjectBurst: cfg.RateLimitSubjectBurst,
	}
	if deps.cache != nil {
		redisDep.Checker = deps.cache
		authCfg.Cache = deps.cache
		rateLimitCfg.Limiter = deps.cache
	}
	healthHandler := handler.NewHealthHandler(storeDep, redisDep)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Probes
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Public routes, limited per client IP
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))

		r.Get("/", h.Root)
		r.Get("/test-db", userHandler.TestDB)
		r.Post("/users", userHandler.Create)
		r.Get("/users/{userId}", userHandler.Get)
	})

	// Authenticated routes, limited per verified subject
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitSubject(rateLimitCfg))

		r.Get("/api/protected", h.Protected)
		r.Post("/lists", listHandler.Create)
		r.Get("/lists/user/{userId}", listHandler.ListByUser)
	})

	r.Get("/debug-routes", h.DebugRoutes(r))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
