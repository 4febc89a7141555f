package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/config"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/handler"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/jobs"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/logging"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/storage"
	"github.com/Riya-Singh-Hash/CampusConnect/pkg/jwt"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to a TOML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	slog.SetDefault(logging.New(os.Stdout, logging.Options{
		Level:      cfg.Log.SlogLevel(),
		JSON:       cfg.Log.Format == config.LogFormatJSON,
		AddSource:  cfg.Log.AddSource,
		QuietPaths: []string{"/health"},
	}))
	slog.Info("configuration loaded", slog.String("config", cfg.String()))

	loc, err := cfg.Domain.Zone()
	if err != nil {
		slog.Error("invalid domain location", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize storage
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	// Initialize JWT service
	if cfg.IsDevelopment() {
		if err := ensureDevKeys(cfg.JWT); err != nil {
			slog.Error("failed to generate development keys", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	svcCfg := service.Config{
		Users:        store.Users,
		Clubs:        store.Clubs,
		Events:       store.Events,
		Locks:        service.NewLocks(),
		Now:          time.Now,
		Location:     loc,
		PasswordCost: cfg.JWT.PasswordCost,
	}
	accountService := service.NewAccountService(svcCfg, jwtService)
	clubService := service.NewClubService(svcCfg)
	membershipService := service.NewMembershipService(svcCfg)
	eventService := service.NewEventService(svcCfg)
	participationService := service.NewParticipationService(svcCfg)

	// Initialize request middleware state
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:   cfg.RateLimit.Rate,
			Window: cfg.RateLimit.Window,
			Burst:  cfg.RateLimit.Burst,
		})
		defer rateLimiter.Stop()
	}
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Accounts:       accountService,
		Clubs:          clubService,
		Membership:     membershipService,
		Events:         eventService,
		Participation:  participationService,
		Store:          store,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    rateLimiter,
		Idempotency:    idempotencyStore,
	})

	// Start background jobs
	var repairJob *jobs.ReferenceRepair
	if cfg.Jobs.RepairEnabled {
		repairJob = jobs.NewReferenceRepair(
			service.NewRepairService(svcCfg, cfg.Jobs.RepairBatch),
			cfg.Jobs.RepairInterval,
		)
		repairJob.Start()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("storage", store.Driver()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	if repairJob != nil {
		repairJob.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// ensureDevKeys writes a fresh key pair when the configured files are missing
func ensureDevKeys(cfg config.JWTConfig) error {
	if _, err := os.Stat(cfg.PrivateKeyPath); err == nil {
		return nil
	}
	for _, path := range []string{cfg.PrivateKeyPath, cfg.PublicKeyPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
	}
	slog.Warn("generating development signing keys",
		slog.String("private_key", cfg.PrivateKeyPath),
		slog.String("public_key", cfg.PublicKeyPath),
	)
	return jwt.GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath)
}
