// Package registrytest provides in-memory fakes of the registry contract.
package registrytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

// Bus is a fake event bus driven by the test through Publish and Fail.
type Bus struct {
	*registry.Emitter

	mu        sync.Mutex
	done      chan struct{}
	err       error
	closed    int
	closeOnce sync.Once
	stopOnce  sync.Once

	// OnClose, if set, runs at the start of the first Close call.
	OnClose func()
	// KeepOpen makes Close count the call without stopping the bus, so one
	// bus can be shared by many subscribers.
	KeepOpen bool
}

func NewBus() *Bus {
	return &Bus{Emitter: registry.NewEmitter(), done: make(chan struct{})}
}

// Publish delivers ev synchronously to the registered listeners.
func (b *Bus) Publish(ev registry.BusEvent) { b.Emit(ev) }

// Fail stops the bus with err, as a dropped daemon connection would.
func (b *Bus) Fail(err error) {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		close(b.done)
	})
}

func (b *Bus) Done() <-chan struct{} { return b.done }

func (b *Bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		if b.OnClose != nil {
			b.OnClose()
		}
		if !b.KeepOpen {
			b.stopOnce.Do(func() { close(b.done) })
		}
	})
	b.mu.Lock()
	b.closed++
	b.mu.Unlock()
	return nil
}

// CloseCalls returns how many times Close was called.
func (b *Bus) CloseCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Registry is a fake process manager.
type Registry struct {
	mu sync.Mutex

	Processes []registry.ProcessInfo
	ListErr   error
	OpenErr   error
	CmdErr    error
	PingErr   error

	// SharedBus, if set, is returned by every OpenEventBus call.
	SharedBus *Bus

	buses    []*Bus
	Restarts []string
	Stops    []string
}

func (r *Registry) ListProcesses(context.Context) ([]registry.ProcessInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := make([]registry.ProcessInfo, len(r.Processes))
	copy(out, r.Processes)
	return out, nil
}

func (r *Registry) FindProcess(ctx context.Context, name string) (*registry.ProcessInfo, error) {
	list, err := r.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, apperr.NotFound("Application " + name)
}

func (r *Registry) Restart(ctx context.Context, name string) (registry.Result, error) {
	if err := r.command(ctx, name); err != nil {
		return registry.Result{}, err
	}
	r.mu.Lock()
	r.Restarts = append(r.Restarts, name)
	r.mu.Unlock()
	return registry.Result{Message: fmt.Sprintf("Application %s restarted successfully", name)}, nil
}

func (r *Registry) Stop(ctx context.Context, name string) (registry.Result, error) {
	if err := r.command(ctx, name); err != nil {
		return registry.Result{}, err
	}
	r.mu.Lock()
	r.Stops = append(r.Stops, name)
	r.mu.Unlock()
	return registry.Result{Message: fmt.Sprintf("Application %s stopped successfully", name)}, nil
}

func (r *Registry) command(ctx context.Context, name string) error {
	if r.CmdErr != nil {
		return r.CmdErr
	}
	_, err := r.FindProcess(ctx, name)
	return err
}

func (r *Registry) OpenEventBus(context.Context) (registry.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	b := r.SharedBus
	if b == nil {
		b = NewBus()
	}
	r.buses = append(r.buses, b)
	return b, nil
}

func (r *Registry) Ping(context.Context) error { return r.PingErr }

// Buses returns every bus handed out so far.
func (r *Registry) Buses() []*Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Bus(nil), r.buses...)
}
