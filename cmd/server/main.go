package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"route-planning-service/internal/adapters/cache"
	"route-planning-service/internal/adapters/logistics"
	"route-planning-service/internal/adapters/optimizer"
	"route-planning-service/internal/adapters/repositories"
	"route-planning-service/internal/api"
	"route-planning-service/internal/config"
	"route-planning-service/internal/domain"
	"route-planning-service/internal/platform/db"
	"route-planning-service/internal/platform/logging"
	"route-planning-service/internal/ports"
	"route-planning-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (postgres, redis, the optimizer and the logistics
// backend) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if cfg.Database.URL == "" {
		logging.Fatal().Msg("DATABASE_URL is required")
	}
	sqlDB, err := db.Open(cfg.Database.URL)
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer sqlDB.Close()

	gormDB, err := db.OpenGorm(sqlDB)
	if err != nil {
		logging.Fatal().Err(err).Msg("open gorm")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping")
	}

	httpOpt, err := optimizer.NewHTTPOptimizer(cfg.Optimizer.BaseURL, cfg.Optimizer.APIKey, cfg.Optimizer.Timeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("optimizer")
	}
	opt := optimizer.NewBreakerOptimizer(httpOpt, optimizer.BreakerConfig{
		MaxFailures: cfg.Optimizer.BreakerFailures,
		Cooldown:    cfg.Optimizer.BreakerCooldown,
	})

	backend, err := logistics.NewClient(cfg.Logistics.BaseURL, cfg.Logistics.Timeout, cfg.Logistics.NotifyTo)
	if err != nil {
		logging.Fatal().Err(err).Msg("logistics client")
	}

	var store ports.PlannedRouteStore = backend
	if cfg.Database.ArchiveRoutes {
		store = repositories.ArchivingStore{
			Primary: backend,
			Archive: repositories.NewSQLPlannedRouteStore(sqlDB),
		}
	}

	deps := services.PlannerDeps{
		Optimizer: opt,
		Backlog:   backend,
		Store:     store,
		Notifier:  logistics.FanoutNotifier{backend, cache.NewRedisNotifier(rdb, cfg.Redis.NotifyChannel)},
		Drafts:    cache.NewRedisDraftStore(rdb, cfg.Redis.DraftTTL),
	}
	center := domain.DistributionCenter{
		Name:     cfg.Center.Name,
		Position: domain.LatLng{Lat: cfg.Center.Lat, Lng: cfg.Center.Lng},
	}
	sessions := services.NewSessionRegistry(deps, center)

	auth := services.NewAuthService(
		repositories.NewGormCredentialRepository(gormDB),
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
	)

	router := api.NewRouter(api.Deps{
		Auth:               auth,
		Sessions:           sessions,
		DragWatchdog:       cfg.Surface.DragWatchdog,
		CORSOrigins:        cfg.Server.CORSOrigins,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
	})

	// Timeouts leave room for slow optimizer calls.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Optimizer.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown")
	}
	sessions.Shutdown()
}
