package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 10s
	RequestTimeout  time.Duration // per-request timeout for CRUD routes (health checks are exempt)

	LogLevel      string // "debug" | "info" | "warn" | "error"
	PrettyLog     bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile       string // optional, rotated with lumberjack
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	DBPath string // SQLite file, ex: /data/nowen.db

	AdminUsername     string        // first admin created when the admins table is empty
	AdminPassword     string        // empty => a random password is generated and logged once
	SessionTTL        time.Duration // bearer token lifetime
	SessionGCInterval time.Duration // how often expired tokens are purged

	ProbeTimeout   time.Duration // per-request budget for a health probe (default: 10s)
	ProbeUserAgent string        // User-Agent sent by health probes

	BookmarkFile         string        // optional homepage-format bookmarks.yaml to import
	BookmarkSyncInterval time.Duration // periodic re-import of BookmarkFile
	BookmarkWatch        bool          // re-import on file change (fsnotify)

	// Redis (optional, empty RedisAddr => in-memory health cache)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict ops endpoints to specific IPs/CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins     []string // allowed origins for the SPA client ("*" allowed)
	LoginRatePerMin int      // login attempts refilled per IP per minute
	LoginBurst      int      // login attempts allowed in a burst
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("NOWEN_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("NOWEN_SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  mustDuration("NOWEN_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:      getenv("NOWEN_LOG_LEVEL", "info"),
		PrettyLog:     mustBool("NOWEN_PRETTY_LOG", false),
		LogFile:       getenv("NOWEN_LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt("NOWEN_LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getenvInt("NOWEN_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getenvInt("NOWEN_LOG_MAX_AGE_DAYS", 30),

		// Storage
		DBPath: getenv("NOWEN_DB_PATH", "/data/nowen.db"),

		// Auth
		AdminUsername:     getenv("NOWEN_ADMIN_USERNAME", "admin"),
		AdminPassword:     getenv("NOWEN_ADMIN_PASSWORD", ""),
		SessionTTL:        mustDuration("NOWEN_SESSION_TTL", 7*24*time.Hour),
		SessionGCInterval: mustDuration("NOWEN_SESSION_GC_INTERVAL", time.Hour),

		// Health checks
		ProbeTimeout:   mustDuration("NOWEN_PROBE_TIMEOUT", 10*time.Second),
		ProbeUserAgent: getenv("NOWEN_PROBE_USER_AGENT", ""),

		// Bookmark file
		BookmarkFile:         getenv("NOWEN_BOOKMARK_FILE", ""), // Optional, empty = sync disabled
		BookmarkSyncInterval: mustDuration("NOWEN_BOOKMARK_SYNC_INTERVAL", 24*time.Hour),
		BookmarkWatch:        mustBool("NOWEN_BOOKMARK_WATCH", true),

		// Redis settings
		RedisAddr:             getenv("NOWEN_REDIS_ADDR", ""),
		RedisUser:             getenv("NOWEN_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("NOWEN_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("NOWEN_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("NOWEN_REDIS_DB", 0),
		RedisDT:               mustDuration("NOWEN_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("NOWEN_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("NOWEN_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("NOWEN_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("NOWEN_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("NOWEN_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("NOWEN_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("NOWEN_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("NOWEN_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("NOWEN_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("NOWEN_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("NOWEN_TRUST_PROXY", false),
		CORSOrigins:     splitAndTrim(getenv("NOWEN_CORS_ORIGINS", "*")),
		LoginRatePerMin: getenvInt("NOWEN_LOGIN_RATE_PER_MIN", 5),
		LoginBurst:      getenvInt("NOWEN_LOGIN_BURST", 5),
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: NOWEN_REDIS_PASSWORD is required when NOWEN_REDIS_PASSWORD_REQUIRED=true")
	}
	if cfg.ProbeTimeout <= 0 {
		panic(fmt.Sprintf("❌ FATAL: NOWEN_PROBE_TIMEOUT must be > 0, got %v", cfg.ProbeTimeout))
	}
	if cfg.SessionTTL <= 0 {
		panic(fmt.Sprintf("❌ FATAL: NOWEN_SESSION_TTL must be > 0, got %v", cfg.SessionTTL))
	}
	if cfg.SessionGCInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: NOWEN_SESSION_GC_INTERVAL must be > 0, got %v", cfg.SessionGCInterval))
	}
	if cfg.BookmarkSyncInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: NOWEN_BOOKMARK_SYNC_INTERVAL must be > 0, got %v", cfg.BookmarkSyncInterval))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.AdminPassword != "" {
		cp.AdminPassword = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvInt, mustBool and mustDuration return def when key is unset and
// panic when it is set to something that does not parse.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func mustBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid boolean value for %s: %s", key, v))
	}
	return b
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid duration for %s: %s (expected e.g. 10s, 5m, 1h)", key, v))
	}
	return d
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
