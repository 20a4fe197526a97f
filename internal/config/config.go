package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	RefreshStoreMemory = "memory"
	RefreshStoreRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":3001"
	Env             string        // "development" | "production"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Tokens
	JWTSecret     string
	AccessTTL     time.Duration // default 30m
	RefreshTTL    time.Duration // default 7 days
	JWTIssuer     string
	JWTAudience   string
	SweepSchedule string // cron spec, ex: "@every 1h"

	// Static principal
	AdminUsername     string
	AdminPasswordHash string // bcrypt

	// Refresh token store
	RefreshStore string // "memory" | "redis"

	// Redis (only used when RefreshStore == "redis")
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int           // warn after this many attempts

	// Process registry
	PM2Home         string
	PM2DialTimeout  time.Duration
	PM2CallTimeout  time.Duration
	StreamHeartbeat time.Duration // 0 disables SSE keep-alive comments

	// Logs
	LogPathsFile    string // optional YAML overriding candidate directories
	MaxLogLines     int
	DefaultLogLines int
	SinkDBPath      string // empty = sink disabled

	// HTTP edge
	FrontendURL     string
	RateLimitBurst  int
	RateLimitPerMin int
	MaxBodyBytes    int64
	RequestTimeout  time.Duration // applied to every route except the live stream
	AllowedCIDRS    []string      // restricts /metrics and /readyz
	TrustProxy      bool          // true => trust X-Forwarded-For headers
}

// IsProduction reports whether the service runs with production layout and
// without debug detail in error bodies.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BB_LISTEN_PORT", ":3001"),
		Env:             getenv("BB_ENV", EnvDevelopment),
		ShutdownTimeout: mustDuration("BB_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BB_PRETTY_LOG", true),

		// Tokens
		JWTSecret:     requireEnv("BB_JWT_SECRET"),
		AccessTTL:     mustDuration("BB_JWT_ACCESS_TTL", 30*time.Minute),
		RefreshTTL:    mustDuration("BB_JWT_REFRESH_TTL", 7*24*time.Hour),
		JWTIssuer:     getenv("BB_JWT_ISSUER", "big-brother-api"),
		JWTAudience:   getenv("BB_JWT_AUDIENCE", "big-brother-dashboard"),
		SweepSchedule: getenv("BB_TOKEN_SWEEP_SCHEDULE", "@every 1h"),

		// Principal
		AdminUsername:     requireEnv("BB_ADMIN_USERNAME"),
		AdminPasswordHash: requireEnv("BB_ADMIN_PASSWORD_HASH"),

		RefreshStore: strings.ToLower(getenv("BB_REFRESH_STORE", RefreshStoreMemory)),

		// Redis settings
		RedisAddr:           getenv("BB_REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("BB_REDIS_USERNAME", ""),
		RedisPassword:       getenv("BB_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("BB_REDIS_DB", 0),
		RedisDT:             mustDuration("BB_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("BB_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("BB_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("BB_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("BB_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("BB_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("BB_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("BB_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("BB_REDIS_WARN_THRESHOLD", 3),

		// Registry
		PM2Home:         getenv("BB_PM2_HOME", defaultPM2Home()),
		PM2DialTimeout:  mustDuration("BB_PM2_DIAL_TIMEOUT", 2*time.Second),
		PM2CallTimeout:  mustDuration("BB_PM2_CALL_TIMEOUT", 10*time.Second),
		StreamHeartbeat: mustDuration("BB_STREAM_HEARTBEAT", 30*time.Second),

		// Logs
		LogPathsFile:    getenv("BB_LOG_PATHS_FILE", ""),
		MaxLogLines:     getenvInt("BB_MAX_LOG_LINES", 2000),
		DefaultLogLines: getenvInt("BB_DEFAULT_LOG_LINES", 500),
		SinkDBPath:      getenv("BB_SINK_DB_PATH", ""),

		// HTTP edge
		FrontendURL:     getenv("BB_FRONTEND_URL", "http://localhost:3000"),
		RateLimitBurst:  getenvInt("BB_RATE_LIMIT_BURST", 100),
		RateLimitPerMin: getenvInt("BB_RATE_LIMIT_PER_MIN", 100),
		MaxBodyBytes:    int64(getenvInt("BB_MAX_BODY_BYTES", 10<<20)),
		RequestTimeout:  mustDuration("BB_REQUEST_TIMEOUT", 15*time.Second),
		AllowedCIDRS:    parseAllowedIPs(getenv("BB_METRICS_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("BB_TRUST_PROXY", true),
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		panic(fmt.Sprintf("❌ FATAL: BB_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env))
	}
	if cfg.RefreshStore != RefreshStoreMemory && cfg.RefreshStore != RefreshStoreRedis {
		panic(fmt.Sprintf("❌ FATAL: BB_REFRESH_STORE must be %q or %q, got %q", RefreshStoreMemory, RefreshStoreRedis, cfg.RefreshStore))
	}
	if cfg.DefaultLogLines <= 0 || cfg.MaxLogLines <= 0 || cfg.DefaultLogLines > cfg.MaxLogLines {
		panic(fmt.Sprintf("❌ FATAL: invalid log line limits (default=%d, max=%d)", cfg.DefaultLogLines, cfg.MaxLogLines))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.JWTSecret = "***REDACTED***"
		cfgCopy.AdminPasswordHash = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
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

// defaultPM2Home mirrors PM2's own resolution: $PM2_HOME, then ~/.pm2.
func defaultPM2Home() string {
	if v := os.Getenv("PM2_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pm2"
	}
	return filepath.Join(home, ".pm2")
}
