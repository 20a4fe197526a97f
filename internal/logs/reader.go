package logs

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
)

const (
	DefaultLimit = 500
	MaxLimit     = 2000
)

// Window selects lines counted from the end of a file: Offset 0 is the
// newest line and a larger Offset walks back in time.
type Window struct {
	Limit  int
	Offset int
}

// Page is one window of non-blank lines, oldest first.
type Page struct {
	Lines          []string
	TotalLines     int
	RequestedLines int
	ReturnedLines  int
	HasMore        bool
	File           string
	// StartIndex is the position of Lines[0] among all non-blank lines.
	StartIndex int
}

// Reader reads bounded windows of log files.
type Reader struct {
	defaultLimit int
	maxLimit     int
}

// NewReader returns a Reader. Non-positive limits fall back to
// DefaultLimit and MaxLimit.
func NewReader(defaultLimit, maxLimit int) *Reader {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(DefaultLimit, maxLimit)
	}
	return &Reader{defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (r *Reader) normalize(w Window) Window {
	if w.Limit <= 0 {
		w.Limit = r.defaultLimit
	}
	w.Limit = min(w.Limit, r.maxLimit)
	w.Offset = min(max(w.Offset, 0), math.MaxInt32)
	return w
}

// Read returns the window of path selected by w. Lines are split on '\n'
// and blank lines are not counted. Only the last Limit+Offset lines are
// held in memory while scanning.
//
// A missing file is apperr.KindNotFound; any other failure is
// apperr.KindLogFile.
func (r *Reader) Read(ctx context.Context, path string, w Window) (*Page, error) {
	w = r.normalize(w)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("Log file").WithDetails(path)
		}
		return nil, apperr.LogFile(err, "Failed to read log file")
	}
	defer f.Close()

	tail := newRing(w.Limit + w.Offset)
	total := 0
	br := bufio.NewReader(f)
	for {
		line, rerr := br.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, apperr.LogFile(rerr, "Failed to read log file")
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			tail.push(line)
			total++
			if total%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
		}
		if rerr != nil {
			break
		}
	}

	start := max(0, total-w.Limit-w.Offset)
	end := total - w.Offset

	page := &Page{
		TotalLines:     total,
		RequestedLines: w.Limit,
		HasMore:        start > 0,
		File:           path,
		StartIndex:     start,
		Lines:          []string{},
	}
	if end > start {
		kept := tail.ordered()
		first := total - len(kept)
		page.Lines = kept[start-first : end-first]
	}
	page.ReturnedLines = len(page.Lines)
	return page, nil
}

// ring keeps the most recent size lines.
type ring struct {
	buf  []string
	size int
	next int
}

func newRing(size int) *ring {
	return &ring{size: size}
}

func (r *ring) push(s string) {
	if len(r.buf) < r.size {
		r.buf = append(r.buf, s)
		return
	}
	r.buf[r.next] = s
	r.next = (r.next + 1) % r.size
}

func (r *ring) ordered() []string {
	if r.next == 0 {
		return r.buf
	}
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
