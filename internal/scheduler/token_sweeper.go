package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/bigbrother/internal/logger"
)

const (
	// DefaultSweepSchedule runs the sweep once an hour
	DefaultSweepSchedule = "@every 1h"
)

// Sweeper evicts refresh tokens that no longer verify.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// TokenSweeper runs the refresh token sweep on a cron schedule and on
// demand. All sweeps run on one goroutine, one at a time.
type TokenSweeper struct {
	sweeper  Sweeper
	logger   logger.Logger
	schedule string
	cron     *cron.Cron

	trigger  chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewTokenSweeper creates a sweeper. An empty schedule means
// DefaultSweepSchedule.
func NewTokenSweeper(s Sweeper, log logger.Logger, schedule string) *TokenSweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &TokenSweeper{
		sweeper:  s,
		logger:   log,
		schedule: schedule,
		cron:     cron.New(),
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start sweeps once, then schedules the periodic sweep.
func (ts *TokenSweeper) Start(ctx context.Context) error {
	if _, err := ts.cron.AddFunc(ts.schedule, func() { ts.Trigger() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", ts.schedule, err)
	}

	// Run immediately on start
	if _, err := ts.Sweep(ctx); err != nil {
		ts.logger.Warn("initial token sweep failed", logger.Error(err))
	}

	ts.started = true
	ts.cron.Start()
	go ts.loop(ctx)

	ts.logger.Info("token sweeper started", logger.String("schedule", ts.schedule))
	return nil
}

func (ts *TokenSweeper) loop(ctx context.Context) {
	defer close(ts.done)
	for {
		select {
		case <-ts.trigger:
			if _, err := ts.Sweep(ctx); err != nil {
				ts.logger.Error("token sweep failed", logger.Error(err))
			}
		case <-ts.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Trigger requests a sweep without waiting for it. It returns false when a
// sweep is already pending.
func (ts *TokenSweeper) Trigger() bool {
	select {
	case ts.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop halts the schedule and waits for a running sweep to finish. It is
// safe to call more than once.
func (ts *TokenSweeper) Stop() {
	ts.stopOnce.Do(func() {
		<-ts.cron.Stop().Done()
		close(ts.stopCh)
		if ts.started {
			<-ts.done
		}
	})
}

// Sweep runs one sweep now.
func (ts *TokenSweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	evicted, err := ts.sweeper.SweepExpired(ctx)
	if err != nil {
		return evicted, err
	}

	if evicted > 0 {
		ts.logger.Info("token sweep completed",
			logger.Int("evicted", evicted),
			logger.Duration("took", time.Since(start)))
	} else {
		ts.logger.Debug("no refresh tokens to sweep")
	}
	return evicted, nil
}
