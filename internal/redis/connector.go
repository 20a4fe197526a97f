// Package redis opens the go-redis client used for shared state, waiting
// for the server with a capped exponential backoff.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bigbrother/internal/logger"
)

// ConnectOptions defines the client settings and the startup retry policy.
type ConnectOptions struct {
	// Purpose names what the connection serves, e.g. "refresh-store". It is
	// attached to every connection log line.
	Purpose string

	Addr         string // ex: "localhost:6379"
	User         string
	Password     string
	RedisDB      int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // total budget for startup attempts (ex: 30s)
	RetryInterval  time.Duration // first wait between attempts, doubled each time
	MaxWait        time.Duration // cap on the wait between attempts
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // attempts logged at warn before switching to error
}

// validate reports every invalid retry setting at once.
func (o ConnectOptions) validate() error {
	var problems []error
	if o.ConnectTimeout <= 0 {
		problems = append(problems, fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		problems = append(problems, fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait <= 0 {
		problems = append(problems, fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait))
	}
	if o.PingTimeout <= 0 {
		problems = append(problems, fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout))
	}
	if o.WarnThreshold < 0 {
		problems = append(problems, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(problems...)
}

// backoff doubles the wait after every failed attempt, up to max.
type backoff struct {
	wait time.Duration
	max  time.Duration
}

func (b *backoff) next() time.Duration {
	w := b.wait
	b.wait = min(b.wait*2, b.max)
	return w
}

// attemptLog carries the connection context on every line it writes.
type attemptLog struct {
	log       logger.Logger
	warnUntil int
}

func newAttemptLog(log logger.Logger, opts ConnectOptions) *attemptLog {
	purpose := opts.Purpose
	if purpose == "" {
		purpose = "default"
	}
	return &attemptLog{
		log: log.With(
			logger.String("purpose", purpose),
			logger.String("addr", opts.Addr),
			logger.Int("db", opts.RedisDB),
			logger.Bool("auth", opts.Password != ""),
		),
		warnUntil: opts.WarnThreshold,
	}
}

func (a *attemptLog) failed(attempt int, remaining, wait time.Duration, err error) {
	fields := []logger.Field{
		logger.Int("attempt", attempt),
		logger.Duration("remaining", remaining),
		logger.Time("next_attempt_at", time.Now().Add(wait)),
		logger.Error(err),
	}
	switch {
	case attempt <= a.warnUntil && remaining >= 10*time.Second:
		a.log.Warn("redis not reachable yet, retrying", fields...)
	default:
		a.log.Error("redis still unavailable, retrying", fields...)
	}
}

// New creates a client and blocks until redis answers a ping, the
// ConnectTimeout budget is spent or ctx is cancelled. The client is closed
// when no connection could be established.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis connect options",
			logger.String("purpose", opts.Purpose),
			logger.Strings("problems", splitJoined(err)))
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.RedisDB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if _, err := waitReady(ctx, client, opts, newAttemptLog(log, opts)); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// waitReady pings until success and returns the number of attempts made.
func waitReady(parent context.Context, client redis.UniversalClient, opts ConnectOptions, alog *attemptLog) (int, error) {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	alog.log.Info("connecting to redis", logger.Duration("budget", opts.ConnectTimeout))
	start := time.Now()
	b := &backoff{wait: opts.RetryInterval, max: opts.MaxWait}

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			alog.log.Info("connected to redis",
				logger.Int("attempts", attempt),
				logger.Int64("elapsed_ms", time.Since(start).Milliseconds()))
			return attempt, nil
		}

		wait := b.next()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			alog.log.Error("redis unavailable, giving up",
				logger.Int("attempts", attempt),
				logger.Duration("budget", opts.ConnectTimeout),
				logger.Error(err))
			return attempt, fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
			alog.failed(attempt, timeLeft(ctx), b.wait, err)
		}
	}
}

func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}

// splitJoined unpacks an errors.Join result into its messages.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}
