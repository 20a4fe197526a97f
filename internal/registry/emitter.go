package registry

import "sync"

type registration struct {
	handle ListenerHandle
	fn     Listener
}

// Emitter is a concurrency-safe listener set. Bus implementations embed it
// and call Emit from their reader goroutine.
type Emitter struct {
	mu        sync.RWMutex
	next      ListenerHandle
	listeners map[StreamKind][]registration
}

func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[StreamKind][]registration)}
}

func (e *Emitter) On(kind StreamKind, fn Listener) ListenerHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	e.listeners[kind] = append(e.listeners[kind], registration{handle: e.next, fn: fn})
	return e.next
}

func (e *Emitter) RemoveListener(kind StreamKind, h ListenerHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	regs := e.listeners[kind]
	for i, r := range regs {
		if r.handle == h {
			e.listeners[kind] = append(regs[:i:i], regs[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Emitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := 0
	for _, regs := range e.listeners {
		n += len(regs)
	}
	return n
}

// Emit calls every listener registered for ev.Stream in registration order.
// Listeners run outside the lock so they may remove themselves.
func (e *Emitter) Emit(ev BusEvent) {
	e.mu.RLock()
	regs := e.listeners[ev.Stream]
	snapshot := make([]Listener, len(regs))
	for i, r := range regs {
		snapshot[i] = r.fn
	}
	e.mu.RUnlock()

	for _, fn := range snapshot {
		fn(ev)
	}
}
