package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nowen/nowen/internal/auth"
	"github.com/nowen/nowen/internal/healthcheck"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/metadata"
	"github.com/nowen/nowen/internal/scheduler"
	"github.com/nowen/nowen/internal/store/sqlite"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AllowedHosts    []string         // Host headers allowed to access the ops endpoints
	AllowedCIDRS    []string         // IPs allowed to access readyz/infra endpoints
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins     []string         // origins allowed to call the API from a browser
	RequestTimeout  time.Duration    // per-request timeout for CRUD routes (0 = none)
	LoginRatePerMin int              // login attempts refilled per IP per minute
	LoginBurst      int              // login attempts allowed in a burst

	Store        *sqlite.Store           // SQLite persistence
	Auth         *auth.Service           // admin sessions
	Health       *healthcheck.Service    // URL prober + batch scheduler
	Metadata     *metadata.Fetcher       // page title/description/favicon
	RedisClient  *redis.Client           // nil when the health cache is in memory
	HealthCache  string                  // "redis" | "memory", reported by /infra
	BookmarkSync *scheduler.BookmarkSync // nil if no bookmark file is configured
}

// Now returns the configured clock.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
