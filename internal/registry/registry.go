// Package registry defines the contract between the service and the
// external process manager: process queries, control commands and the
// long-lived event bus carrying process output.
package registry

import (
	"context"
	"time"
)

// Status is the lifecycle state reported by the process manager.
type Status string

const (
	StatusOnline    Status = "online"
	StatusStopping  Status = "stopping"
	StatusStopped   Status = "stopped"
	StatusLaunching Status = "launching"
	StatusErrored   Status = "errored"
	StatusUnknown   Status = "unknown"
)

// ProcessInfo is a read-only projection of one managed process. It is
// fetched fresh for every request and never cached.
type ProcessInfo struct {
	Name             string  `json:"name"`
	PID              int     `json:"pid"`
	RegistryID       int     `json:"pm_id"`
	Status           Status  `json:"status"`
	MemoryBytes      int64   `json:"memory"`
	CPUPercent       float64 `json:"cpu"`
	UptimeMs         int64   `json:"uptime"`
	RestartCount     int     `json:"restart_time"`
	Port             string  `json:"port,omitempty"`
	ScriptPath       string  `json:"script,omitempty"`
	Instances        int     `json:"instances"`
	ExecMode         string  `json:"exec_mode"`
	NodeVersion      string  `json:"node_version,omitempty"`
	CreatedAt        int64   `json:"created_at,omitempty"`
	UnstableRestarts int     `json:"unstable_restarts"`
}

// Result is the outcome of a control command.
type Result struct {
	Message string `json:"message"`
}

// StreamKind identifies which output stream a bus event came from.
type StreamKind string

const (
	Stdout StreamKind = "stdout"
	Stderr StreamKind = "stderr"
)

// BusEvent is one chunk of process output published on the bus.
type BusEvent struct {
	Stream      StreamKind
	ProcessName string
	ProcessID   int
	Data        string
	At          time.Time
}

// Listener receives bus events. It runs on the bus reader goroutine and
// must not block indefinitely.
type Listener func(BusEvent)

// ListenerHandle identifies one registration on a bus. Removal is by
// handle, never by kind alone, because many subscribers share a bus.
type ListenerHandle uint64

// Bus is a long-lived subscription to process output. It is owned by the
// caller that opened it and is independent of query connections.
type Bus interface {
	On(kind StreamKind, fn Listener) ListenerHandle
	// RemoveListener detaches exactly one registration and reports whether
	// it was still attached.
	RemoveListener(kind StreamKind, h ListenerHandle) bool
	ListenerCount() int
	// Done is closed once the bus stops delivering events.
	Done() <-chan struct{}
	// Err reports why the bus stopped; nil after a caller-initiated Close.
	Err() error
	// Close releases the underlying connection. Safe to call repeatedly.
	Close() error
}

// Registry is the process manager client.
type Registry interface {
	// ListProcesses uses a fresh short-lived connection per call.
	ListProcesses(ctx context.Context) ([]ProcessInfo, error)
	// FindProcess fails with a not-found error when no process has name.
	FindProcess(ctx context.Context, name string) (*ProcessInfo, error)
	Restart(ctx context.Context, name string) (Result, error)
	Stop(ctx context.Context, name string) (Result, error)
	// OpenEventBus dials a dedicated bus connection for the caller.
	OpenEventBus(ctx context.Context) (Bus, error)
	// Ping checks the process manager is reachable.
	Ping(ctx context.Context) error
}
