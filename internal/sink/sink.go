// Package sink persists live log records off the streaming path. Offers
// never block: a full buffer drops the record.
package sink

import "time"

// Entry is one live log record as forwarded to a client.
type Entry struct {
	ConnectionID string
	App          string
	Stream       string
	Level        string
	Message      string
	At           time.Time
}

// Sink accepts entries for asynchronous persistence.
type Sink interface {
	// Offer queues e and reports whether it was accepted.
	Offer(e Entry) bool
	Close() error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Offer(Entry) bool { return true }
func (Nop) Close() error     { return nil }
