package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

// eventBuffer is how many matching events may wait for a slow client before
// the bus reader blocks on this subscription.
const eventBuffer = 64

// Subscription owns the two listeners one client registered on a bus.
// Close detaches both listeners and only then releases the bus.
type Subscription struct {
	ID           string
	App          string
	RegisteredAt time.Time

	bus       registry.Bus
	stdout    registry.ListenerHandle
	stderr    registry.ListenerHandle
	events    chan registry.BusEvent
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Subscribe registers a stdout and a stderr listener on bus, both filtered
// on app. Matching events are queued on Events in bus order.
func Subscribe(bus registry.Bus, app string, now time.Time) *Subscription {
	s := &Subscription{
		ID:           uuid.NewString(),
		App:          app,
		RegisteredAt: now,
		bus:          bus,
		events:       make(chan registry.BusEvent, eventBuffer),
		done:         make(chan struct{}),
	}
	s.stdout = bus.On(registry.Stdout, s.forward)
	s.stderr = bus.On(registry.Stderr, s.forward)
	return s
}

// forward runs on the bus reader. Once the buffer is full it blocks until
// the client catches up or the subscription closes.
func (s *Subscription) forward(ev registry.BusEvent) {
	if ev.ProcessName != s.App {
		return
	}
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Events yields the filtered events.
func (s *Subscription) Events() <-chan registry.BusEvent { return s.events }

// Done is closed once Close has been called.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close is idempotent. It removes exactly the two listeners this
// subscription registered, then closes the bus.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.bus.RemoveListener(registry.Stdout, s.stdout)
		s.bus.RemoveListener(registry.Stderr, s.stderr)
		s.closeErr = s.bus.Close()
	})
	return s.closeErr
}
