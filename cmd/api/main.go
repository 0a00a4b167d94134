package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/background"
	"github.com/BradenHooton/denuncias/internal/config"
	"github.com/BradenHooton/denuncias/internal/database"
	"github.com/BradenHooton/denuncias/internal/handlers"
	"github.com/BradenHooton/denuncias/internal/metrics"
	middlewareCustom "github.com/BradenHooton/denuncias/internal/middleware"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/repositories"
	"github.com/BradenHooton/denuncias/internal/routes"
	"github.com/BradenHooton/denuncias/internal/services"
	"github.com/BradenHooton/denuncias/internal/storage"
	pkgauth "github.com/BradenHooton/denuncias/pkg/auth"
	pkglogger "github.com/BradenHooton/denuncias/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	failureDelayBase   = 250 * time.Millisecond
	failureDelayJitter = 100 * time.Millisecond
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	err = database.Migrate(migrateCtx, db.Pool)
	migrateCancel()
	if err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)
	followUpRepo := repositories.NewFollowUpRepository(db)
	transitionStore := repositories.NewTransitionStore(db, complaintRepo, followUpRepo)
	statsRepo := repositories.NewStatisticsRepository(db)

	photoStore, err := storage.NewPhotoStore(cfg.Uploads.Path, cfg.Uploads.MaxFileSize(), cfg.Uploads.AllowedExtensions)
	if err != nil {
		logger.Error("failed to initialize photo storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(complaintRepo, photoStore, logger, cfg.Uploads.CleanupInterval, cfg.Uploads.OrphanGracePeriod)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	// Initialize security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	failureDelay := auth.NewFailureDelay(failureDelayBase, failureDelayJitter)

	var oauth services.OAuthProvider
	if cfg.Google.Enabled() {
		oauth = auth.NewGoogleProvider(&cfg.Google)
	} else {
		logger.Info("google sign-in disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	// AWS SES notifications
	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.Email.Enabled {
		sesNotifier, err := services.NewSESNotifier(cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Server.PublicBaseURL, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	// Initialize services
	userService := services.NewUserService(userRepo, logger)
	authService := services.NewAuthService(userRepo, tokenManager, oauth, cfg.Auth.AuthorityEmailDomain, failureDelay, logger, auditLogger)
	complaintService := services.NewComplaintService(
		complaintRepo,
		followUpRepo,
		transitionStore,
		photoStore,
		notifier,
		appMetrics,
		cfg.Server.PublicBaseURL,
		logger,
		auditLogger,
	)
	statisticsService := services.NewStatisticsService(statsRepo, complaintRepo, userRepo, followUpRepo, logger)

	// Initialize handlers
	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Users:      handlers.NewUserHandler(userService),
		Complaints: handlers.NewComplaintHandler(complaintService, cfg.Uploads.MaxFileSize()),
		Statistics: handlers.NewStatisticsHandler(statisticsService),
	}

	// Bootstrap first authority user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAuthorityUser(ctx, userRepo, &cfg.Auth, logger); err != nil {
		logger.Error("failed to ensure authority user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.Metrics(appMetrics))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, h, tokenManager, userRepo, photoStore.Dir())

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","database":"up","connections":%d}`, db.Stats().TotalConns())
	})

	if cfg.Metrics.Enabled {
		router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureAuthorityUser creates the first authority account if AUTHORITY_EMAIL and AUTHORITY_PASSWORD are set
func ensureAuthorityUser(ctx context.Context, userRepo *repositories.UserRepository, cfg *config.AuthConfig, logger *slog.Logger) error {
	if cfg.AuthorityEmail == "" || cfg.AuthorityPassword == "" {
		logger.Info("no AUTHORITY_EMAIL or AUTHORITY_PASSWORD set, skipping authority user creation")
		return nil
	}

	// Check if the account already exists
	_, err := userRepo.GetByEmail(ctx, cfg.AuthorityEmail)
	if err == nil {
		logger.Info("authority user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if authority exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(cfg.AuthorityPassword); err != nil {
		return fmt.Errorf("authority password rejected: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(cfg.AuthorityPassword)
	if err != nil {
		return fmt.Errorf("failed to hash authority password: %w", err)
	}

	authority := &models.User{
		Email:        cfg.AuthorityEmail,
		PasswordHash: hashedPassword,
		Name:         cfg.AuthorityName,
		Role:         models.RoleAuthority,
	}

	if _, err := userRepo.Create(ctx, authority); err != nil {
		return fmt.Errorf("failed to create authority user: %w", err)
	}

	logger.Info("authority user created successfully")
	return nil
}
