// Package stream bridges a client's event-stream connection to the process
// manager's event bus for one application.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/metrics"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
	"github.com/MrSnakeDoc/bigbrother/internal/sink"
)

// BusOpener opens a dedicated event bus. Every stream opens its own, so N
// concurrent streams hold N daemon connections.
type BusOpener interface {
	OpenEventBus(ctx context.Context) (registry.Bus, error)
}

// Controller serves live log streams.
type Controller struct {
	opener    BusOpener
	sink      sink.Sink
	log       logger.Logger
	heartbeat time.Duration
	now       func() time.Time
}

// NewController returns a Controller. A nil sink discards records and a
// non-positive heartbeat disables keep-alive comments.
func NewController(opener BusOpener, sk sink.Sink, heartbeat time.Duration, log logger.Logger) *Controller {
	if sk == nil {
		sk = sink.Nop{}
	}
	return &Controller{opener: opener, sink: sk, log: log, heartbeat: heartbeat, now: time.Now}
}

// Serve streams the output of app to w until ctx is done or the bus fails.
// The client always gets a connected message first. If the bus cannot be
// opened it then gets exactly one error message and the stream ends.
func (c *Controller) Serve(ctx context.Context, w http.ResponseWriter, app string) {
	out := NewWriter(w)
	if err := out.Open(); err != nil {
		c.log.Warn("stream open failed", logger.String("app", app), logger.Error(err))
		return
	}
	if err := out.Send(Message{Type: TypeConnected, Message: "Connected to logs for " + app}); err != nil {
		return
	}

	bus, err := c.opener.OpenEventBus(ctx)
	if err != nil {
		metrics.StreamFailed()
		c.log.Warn("stream bus unavailable", logger.String("app", app), logger.Error(err))
		_ = out.Send(Message{Type: TypeError, Message: "Failed to connect to PM2: " + errorMessage(err)})
		return
	}

	sub := Subscribe(bus, app, c.now())
	metrics.StreamOpened()
	log := c.log.With(logger.String("conn_id", sub.ID), logger.String("app", app))
	log.Info("stream opened", logger.Int("bus_listeners", bus.ListenerCount()))

	defer func() {
		if err := sub.Close(); err != nil {
			log.Warn("stream bus close failed", logger.Error(err))
		}
		metrics.StreamClosed()
		log.Info("stream closed", logger.Duration("duration", c.now().Sub(sub.RegisteredAt)))
	}()

	var tick <-chan time.Time
	if c.heartbeat > 0 {
		t := time.NewTicker(c.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-bus.Done():
			msg := "PM2 event bus closed"
			if err := bus.Err(); err != nil {
				msg += ": " + err.Error()
			}
			log.Warn("stream bus failed", logger.String("reason", msg))
			_ = out.Send(Message{Type: TypeError, Message: msg})
			return

		case ev := <-sub.Events():
			rec := c.record(ev)
			if err := out.Send(rec); err != nil {
				log.Debug("stream write failed", logger.Error(err))
				return
			}
			c.sink.Offer(sink.Entry{
				ConnectionID: sub.ID,
				App:          app,
				Stream:       string(ev.Stream),
				Level:        rec.Level,
				Message:      rec.Message,
				At:           c.eventTime(ev),
			})

		case <-tick:
			if err := out.Comment("ping"); err != nil {
				return
			}
		}
	}
}

func (c *Controller) record(ev registry.BusEvent) Message {
	level := "info"
	if ev.Stream == registry.Stderr {
		level = "error"
	}
	return Message{
		Type:      TypeLog,
		Level:     level,
		Message:   ev.Data,
		Timestamp: formatTime(c.eventTime(ev)),
		Process:   ev.ProcessName,
	}
}

func (c *Controller) eventTime(ev registry.BusEvent) time.Time {
	if ev.At.IsZero() {
		return c.now()
	}
	return ev.At
}

// errorMessage prefers the user-facing message of classified errors.
func errorMessage(err error) string {
	if ae, ok := apperr.As(err); ok {
		return ae.Message
	}
	return err.Error()
}
