package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	connection_id TEXT NOT NULL,
	app           TEXT NOT NULL,
	stream        TEXT NOT NULL,
	level         TEXT NOT NULL,
	message       TEXT NOT NULL,
	at            INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS logs_app_at ON logs (app, at);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// Options tunes the SQLite sink. Zero values pick defaults.
type Options struct {
	Buffer     int
	BatchSize  int
	FlushEvery time.Duration
}

func (o *Options) defaults() {
	if o.Buffer <= 0 {
		o.Buffer = 1024
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 128
	}
	if o.FlushEvery <= 0 {
		o.FlushEvery = time.Second
	}
}

// SQLite writes entries to a logs table from a single background writer.
type SQLite struct {
	pool    *sqlitex.Pool
	opts    Options
	log     logger.Logger
	entries chan Entry

	mu     sync.RWMutex
	closed bool

	stop chan struct{}
	done chan struct{}
}

// OpenSQLite opens (or creates) the database at path, applies the schema
// and starts the writer.
func OpenSQLite(ctx context.Context, path string, opts Options, log logger.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sink: empty database path")
	}
	opts.defaults()

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize: 2,
		PrepareConn: func(conn *sqlite.Conn) error {
			for _, p := range pragmas {
				if err := sqlitex.ExecuteTransient(conn, p, nil); err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sink: take connection: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	pool.Put(conn)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sink: apply schema: %w", err)
	}

	s := &SQLite{
		pool:    pool,
		opts:    opts,
		log:     log,
		entries: make(chan Entry, opts.Buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()

	log.Info("log sink opened", logger.String("path", path), logger.Int("buffer", opts.Buffer))
	return s, nil
}

// Offer never blocks. It returns false when the buffer is full or the sink
// is closed.
func (s *SQLite) Offer(e Entry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.entries <- e:
		return true
	default:
		metrics.SinkDropped()
		return false
	}
}

// Close stops accepting entries, flushes what is buffered and closes the
// database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return s.pool.Close()
}

func (s *SQLite) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.FlushEvery)
	defer ticker.Stop()

	batch := make([]Entry, 0, s.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.write(batch); err != nil {
			s.log.Error("log sink write failed", logger.Int("entries", len(batch)), logger.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.entries:
			batch = append(batch, e)
			if len(batch) >= s.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stop:
			for {
				select {
				case e := <-s.entries:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *SQLite) write(batch []Entry) (err error) {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return fmt.Errorf("take connection: %w", err)
	}
	defer s.pool.Put(conn)

	endTx, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer endTx(&err)

	for _, e := range batch {
		err = sqlitex.Execute(conn,
			`INSERT INTO logs (connection_id, app, stream, level, message, at) VALUES (?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{e.ConnectionID, e.App, e.Stream, e.Level, e.Message, e.At.UnixMilli()},
			})
		if err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored entries for app, or for every app
// when app is empty.
func (s *SQLite) Count(ctx context.Context, app string) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("sink: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	n := 0
	err = sqlitex.Execute(conn,
		`SELECT COUNT(*) FROM logs WHERE ? = '' OR app = ?`,
		&sqlitex.ExecOptions{
			Args: []any{app, app},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				n = stmt.ColumnInt(0)
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("sink: count: %w", err)
	}
	return n, nil
}

// Ping checks that the database answers.
func (s *SQLite) Ping(ctx context.Context) error {
	_, err := s.Count(ctx, "")
	return err
}
