package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nowen/nowen/internal/config"
	"github.com/nowen/nowen/internal/healthcheck"
	"github.com/nowen/nowen/internal/httpserver"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/index"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/metadata"
	"github.com/nowen/nowen/internal/redis"
	"github.com/nowen/nowen/internal/scheduler"
	redisstore "github.com/nowen/nowen/internal/store/redis"
	"github.com/nowen/nowen/internal/version"
)

type App struct {
	core         *Core
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	janitor      *scheduler.TokenJanitor
	bookmarkSync *scheduler.BookmarkSync
}

// New wires every component of the API server on top of core.
func New(ctx context.Context, core *Core) (*App, error) {
	cfg, log := core.Config, core.Logger

	created, err := core.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin account: %w", err)
	}
	if created {
		log.Info("admin account created", logger.String("username", cfg.AdminUsername))
	}

	// Health result cache: Redis when configured and reachable, memory otherwise
	var (
		results     healthcheck.ResultStore
		cacheMode   = "memory"
		redisClient *goredis.Client
	)
	redisClient, err = redis.Connect(ctx, redis.OptionsFromConfig(cfg), log)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		log.Info("redis not configured, health results cached in memory")
		results = index.NewHealthIndex()
	case err != nil:
		log.Error("redis unavailable, falling back to in-memory health cache", logger.Error(err))
		results = index.NewHealthIndex()
	default:
		log.Info("redis initialized successfully")
		results = redisstore.NewStore(redisClient)
		cacheMode = "redis"
	}

	var bookmarkSync *scheduler.BookmarkSync
	if cfg.BookmarkFile != "" {
		log.Info("bookmark file configured, initializing bookmark sync",
			logger.String("file", cfg.BookmarkFile))
		bookmarkSync = scheduler.NewBookmarkSync(
			cfg.BookmarkFile,
			core.Store,
			log,
			cfg.BookmarkSyncInterval,
			cfg.BookmarkWatch,
		)
	} else {
		log.Info("bookmark file not configured, bookmark sync disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		CORSOrigins:     cfg.CORSOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		LoginRatePerMin: cfg.LoginRatePerMin,
		LoginBurst:      cfg.LoginBurst,
		Store:           core.Store,
		Auth:            core.Auth,
		Health:          core.NewHealthService(results),
		Metadata:        metadata.NewFetcher(cfg.ProbeTimeout),
		RedisClient:     redisClient,
		HealthCache:     cacheMode,
		BookmarkSync:    bookmarkSync,
	}

	return &App{
		core:         core,
		cfg:          cfg,
		logger:       log,
		server:       httpserver.New(cfg, log, d),
		redisClient:  redisClient,
		janitor:      scheduler.NewTokenJanitor(core.Auth, log, cfg.SessionGCInterval),
		bookmarkSync: bookmarkSync,
	}, nil
}

// Run starts the background jobs and the HTTP server, and blocks until
// SIGINT/SIGTERM or a server error.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting NOWEN %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.janitor.Start(ctx)
	a.logger.Info("token janitor started",
		logger.Duration("interval", a.cfg.SessionGCInterval))

	if a.bookmarkSync != nil {
		if err := a.bookmarkSync.Start(ctx); err != nil {
			return fmt.Errorf("failed to start bookmark sync: %w", err)
		}
		a.logger.Info("bookmark sync started",
			logger.Duration("interval", a.cfg.BookmarkSyncInterval),
			logger.Bool("watch", a.cfg.BookmarkWatch))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.janitor.Stop()
	if a.bookmarkSync != nil {
		a.bookmarkSync.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if err := a.core.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		a.logger.Info("✅ NOWEN stopped cleanly")
	}
	return runErr
}
