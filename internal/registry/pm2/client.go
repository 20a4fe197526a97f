// Package pm2 implements the process registry on top of a local PM2
// daemon, speaking its axon protocol over the unix sockets in PM2_HOME.
package pm2

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/registry"
)

const (
	rpcSocket = "rpc.sock"
	pubSocket = "pub.sock"
)

type Options struct {
	// Home is the PM2 home directory holding rpc.sock and pub.sock.
	Home        string
	DialTimeout time.Duration
	// CallTimeout bounds one list or control round trip.
	CallTimeout time.Duration
	Now         func() time.Time
}

// Client talks to the PM2 daemon. Queries and commands use a fresh
// connection per call; each event bus owns its own connection.
type Client struct {
	opts Options
	log  logger.Logger
}

func New(opts Options, log logger.Logger) *Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{opts: opts, log: log}
}

func (c *Client) rpcPath() string { return filepath.Join(c.opts.Home, rpcSocket) }
func (c *Client) pubPath() string { return filepath.Join(c.opts.Home, pubSocket) }

// connect opens a short-lived RPC session bounded by CallTimeout.
func (c *Client) connect(ctx context.Context, op string) (*rpcConn, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	conn, err := dialRPC(ctx, c.rpcPath(), c.opts.DialTimeout)
	if err != nil {
		cancel()
		return nil, nil, nil, registry.MapError(op, err)
	}
	return conn, ctx, cancel, nil
}

func (c *Client) list(ctx context.Context, conn *rpcConn) ([]processDescription, error) {
	var raw []processDescription
	if err := conn.call(ctx, "getMonitorData", []any{map[string]any{}}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) ListProcesses(ctx context.Context) ([]registry.ProcessInfo, error) {
	conn, ctx, cancel, err := c.connect(ctx, "list")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer conn.Close()

	raw, err := c.list(ctx, conn)
	if err != nil {
		return nil, c.classify("list", "", err)
	}

	now := c.opts.Now()
	out := make([]registry.ProcessInfo, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.info(now))
	}
	return out, nil
}

func (c *Client) FindProcess(ctx context.Context, name string) (*registry.ProcessInfo, error) {
	list, err := c.ListProcesses(ctx)
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

func (c *Client) Restart(ctx context.Context, name string) (registry.Result, error) {
	err := c.control(ctx, "restart", name, func(id int) (string, []any) {
		return "restartProcessId", []any{map[string]any{"id": id, "env": map[string]any{}}}
	})
	if err != nil {
		return registry.Result{}, err
	}
	c.log.Info("application restarted", logger.String("app", name))
	return registry.Result{Message: fmt.Sprintf("Application %s restarted successfully", name)}, nil
}

func (c *Client) Stop(ctx context.Context, name string) (registry.Result, error) {
	err := c.control(ctx, "stop", name, func(id int) (string, []any) {
		return "stopProcessId", []any{map[string]any{"id": id}}
	})
	if err != nil {
		return registry.Result{}, err
	}
	c.log.Info("application stopped", logger.String("app", name))
	return registry.Result{Message: fmt.Sprintf("Application %s stopped successfully", name)}, nil
}

// control resolves name to every matching pm_id (cluster mode runs several)
// and issues the command for each on one connection.
func (c *Client) control(ctx context.Context, op, name string, build func(id int) (string, []any)) error {
	conn, ctx, cancel, err := c.connect(ctx, op)
	if err != nil {
		return err
	}
	defer cancel()
	defer conn.Close()

	raw, err := c.list(ctx, conn)
	if err != nil {
		return c.classify(op, name, err)
	}

	var ids []int
	for _, p := range raw {
		if p.Name == name {
			ids = append(ids, p.PMID)
		}
	}
	if len(ids) == 0 {
		return apperr.NotFound("Application " + name)
	}

	for _, id := range ids {
		method, args := build(id)
		if err := conn.call(ctx, method, args, nil); err != nil {
			return c.classify(op, name, err)
		}
	}
	return nil
}

// classify maps a call failure: daemon-side errors are command failures,
// everything else means the daemon could not be reached or answered.
func (c *Client) classify(op, name string, err error) error {
	var remote *remoteError
	if errors.As(err, &remote) {
		return registry.CommandFailed(op, name, err)
	}
	return registry.MapError(op, err)
}

func (c *Client) OpenEventBus(ctx context.Context) (registry.Bus, error) {
	b, err := openBus(ctx, c.pubPath(), c.opts.DialTimeout, c.log)
	if err != nil {
		return nil, registry.MapError("bus", err)
	}
	return b, nil
}

func (c *Client) Ping(ctx context.Context) error {
	conn, _, cancel, err := c.connect(ctx, "ping")
	if err != nil {
		return err
	}
	cancel()
	return conn.Close()
}

var _ registry.Registry = (*Client)(nil)
