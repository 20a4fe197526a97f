package pm2

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

// Bus event names published by the PM2 daemon that carry process output.
const (
	eventLogOut = "log:out"
	eventLogErr = "log:err"
)

// logPacket is the payload of log:out and log:err events.
type logPacket struct {
	Process struct {
		Name string `json:"name"`
		ID   int    `json:"pm_id"`
	} `json:"process"`
	Data string `json:"data"`
	At   int64  `json:"at"`
}

// bus is a dedicated pub/sub connection to $PM2_HOME/pub.sock. One reader
// goroutine decodes frames and dispatches them in arrival order.
type bus struct {
	*registry.Emitter

	conn net.Conn
	log  logger.Logger

	done chan struct{}

	mu      sync.Mutex
	err     error
	closing bool
	once    sync.Once
}

func openBus(ctx context.Context, path string, timeout time.Duration, log logger.Logger) (*bus, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}

	b := &bus{
		Emitter: registry.NewEmitter(),
		conn:    conn,
		log:     log,
		done:    make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *bus) run() {
	defer close(b.done)

	frames := newFrameReader(b.conn)
	for {
		args, err := frames.next()
		if err != nil {
			b.stop(err)
			return
		}
		ev, ok := decodeEvent(args)
		if !ok {
			continue
		}
		b.Emit(ev)
	}
}

// decodeEvent turns a [event, data] frame into a bus event. Frames for
// other events (process state changes, PM2's own log) are skipped.
func decodeEvent(args []arg) (registry.BusEvent, bool) {
	if len(args) < 2 {
		return registry.BusEvent{}, false
	}
	name, ok := args[0].String()
	if !ok {
		return registry.BusEvent{}, false
	}

	var kind registry.StreamKind
	switch name {
	case eventLogOut:
		kind = registry.Stdout
	case eventLogErr:
		kind = registry.Stderr
	default:
		return registry.BusEvent{}, false
	}

	var pkt logPacket
	if err := args[1].Decode(&pkt); err != nil {
		return registry.BusEvent{}, false
	}

	at := time.Now()
	if pkt.At > 0 {
		at = time.UnixMilli(pkt.At)
	}
	return registry.BusEvent{
		Stream:      kind,
		ProcessName: pkt.Process.Name,
		ProcessID:   pkt.Process.ID,
		Data:        pkt.Data,
		At:          at,
	}, true
}

func (b *bus) stop(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closing || errors.Is(err, net.ErrClosed) {
		return
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("pm2 bus closed by daemon")
	}
	b.err = err
	b.log.Warn("pm2 bus stopped", logger.Error(err))
}

func (b *bus) Done() <-chan struct{} { return b.done }

func (b *bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Close releases the connection; the reader goroutine exits on its own.
func (b *bus) Close() error {
	var err error
	b.once.Do(func() {
		b.mu.Lock()
		b.closing = true
		b.mu.Unlock()
		err = b.conn.Close()
	})
	return err
}

var _ registry.Bus = (*bus)(nil)
