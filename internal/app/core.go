package app

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nowen/nowen/internal/auth"
	"github.com/nowen/nowen/internal/config"
	"github.com/nowen/nowen/internal/database"
	"github.com/nowen/nowen/internal/healthcheck"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/store/sqlite"
)

// Core holds what every command needs: config, logger and a migrated database.
type Core struct {
	Config *config.Config
	Logger logger.Logger
	DB     *sql.DB
	Store  *sqlite.Store
	Auth   *auth.Service
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Level:          cfg.LogLevel,
		Pretty:         cfg.PrettyLog,
		FilePath:       cfg.LogFile,
		FileMaxSizeMB:  cfg.LogMaxSizeMB,
		FileMaxBackups: cfg.LogMaxBackups,
		FileMaxAgeDays: cfg.LogMaxAgeDays,
	})
}

// OpenCore opens and migrates the database at cfg.DBPath.
func OpenCore(cfg *config.Config, log logger.Logger) (*Core, error) {
	start := time.Now()
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	version, err := database.Version(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("database ready",
		logger.String("path", cfg.DBPath),
		logger.Int64("schema_version", version),
		logger.Duration("took", time.Since(start)))

	return &Core{
		Config: cfg,
		Logger: log,
		DB:     db,
		Store:  sqlite.New(db),
		Auth:   auth.NewService(db, cfg.SessionTTL, log),
	}, nil
}

// NewProber builds the URL prober from the NOWEN_PROBE_* settings.
func (c *Core) NewProber() *healthcheck.Prober {
	return healthcheck.NewProber(
		healthcheck.WithTimeout(c.Config.ProbeTimeout),
		healthcheck.WithUserAgent(c.Config.ProbeUserAgent),
	)
}

// NewHealthService wires the health checker to the bookmark store.
// results may be nil to skip caching.
func (c *Core) NewHealthService(results healthcheck.ResultStore) *healthcheck.Service {
	return healthcheck.NewService(c.Store, c.NewProber(), results, c.Logger)
}

// Close releases the database.
func (c *Core) Close() error {
	if err := c.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
