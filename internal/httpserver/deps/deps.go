package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/logs"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
	"github.com/MrSnakeDoc/bigbrother/internal/stream"
)

// SweepTrigger requests an out-of-schedule refresh token sweep.
type SweepTrigger interface {
	Trigger() bool
}

// Pinger reports whether an optional backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	Environment  string           // "development" | "production"
	Production   bool             // hides debug detail in error bodies
	AllowedCIDRS []string         // IPs allowed to access readyz and metrics
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	FrontendURL  string           // CORS origin echoed to the browser

	RateLimitBurst  int
	RateLimitPerMin int
	MaxBodyBytes    int64
	RequestTimeout  time.Duration // every route except the live stream

	Auth     *auth.Service
	Registry registry.Registry
	Logs     *logs.Service
	Streams  *stream.Controller
	Sweeper  SweepTrigger  // nil disables the manual sweep endpoint
	Redis    *redis.Client // nil when refresh tokens live in memory
	Sink     Pinger        // nil when the log sink is disabled
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
