package pm2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// rpcRequest is the pm2-axon-rpc call envelope.
type rpcRequest struct {
	Type   string `json:"type"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// rpcReply carries either the callback arguments or the remote error.
type rpcReply struct {
	Args  []json.RawMessage `json:"args"`
	Error *string           `json:"error"`
	Stack string            `json:"stack"`
}

// remoteError is a failure reported by the daemon itself.
type remoteError struct {
	Method  string
	Message string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("pm2 %s: %s", e.Method, e.Message)
}

var connSeq atomic.Uint64

// rpcConn is one short-lived req/rep session with the daemon.
type rpcConn struct {
	conn     net.Conn
	frames   *frameReader
	identity string
	seq      uint64

	closeOnce sync.Once
	closeErr  error
}

func dialRPC(ctx context.Context, path string, timeout time.Duration) (*rpcConn, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return &rpcConn{
		conn:     conn,
		frames:   newFrameReader(conn),
		identity: strconv.Itoa(os.Getpid()) + "-" + strconv.FormatUint(connSeq.Add(1), 10),
	}, nil
}

// call invokes method and decodes the first callback argument into out.
// Cancelling ctx aborts a pending read or write.
func (c *rpcConn) call(ctx context.Context, method string, args []any, out any) error {
	if args == nil {
		args = []any{}
	}
	c.seq++
	id := c.identity + ":" + strconv.FormatUint(c.seq, 10)

	frame, err := encodeFrame(rpcRequest{Type: "call", Method: method, Args: args}, id)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := c.conn.Write(frame); err != nil {
		return c.ctxErr(ctx, fmt.Errorf("write %s: %w", method, err))
	}

	for {
		fargs, err := c.frames.next()
		if err != nil {
			return c.ctxErr(ctx, fmt.Errorf("read %s reply: %w", method, err))
		}
		if len(fargs) < 2 {
			continue
		}
		if got, _ := fargs[len(fargs)-1].String(); got != id {
			// reply to an earlier call that timed out on our side
			continue
		}

		var reply rpcReply
		if err := fargs[0].Decode(&reply); err != nil {
			return fmt.Errorf("decode %s reply: %w", method, err)
		}
		if reply.Error != nil {
			return &remoteError{Method: method, Message: *reply.Error}
		}
		if out == nil || len(reply.Args) == 0 {
			return nil
		}
		if err := json.Unmarshal(reply.Args[0], out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	}
}

func (c *rpcConn) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Join(ctxErr, err)
	}
	return err
}

// Close ends the session. Safe to call more than once.
func (c *rpcConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
