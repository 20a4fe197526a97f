package pm2

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// PM2 talks axon over its unix sockets. Every axon message is one AMP frame:
// a header byte (version<<4 | argc) followed by argc arguments, each a
// 4-byte big-endian length and the payload. Payloads prefixed "s:" are
// strings, "j:" JSON documents, anything else raw bytes.

const (
	ampVersion = 1
	maxArgs    = 15
	// maxArgLen bounds a single argument; a process list for a few hundred
	// apps stays well below this.
	maxArgLen = 64 << 20
)

var errTooManyArgs = errors.New("amp: more than 15 arguments")

// arg is one decoded frame argument with its type prefix intact.
type arg []byte

func (a arg) isString() bool { return len(a) >= 2 && a[0] == 's' && a[1] == ':' }
func (a arg) isJSON() bool   { return len(a) >= 2 && a[0] == 'j' && a[1] == ':' }

// String returns the value of an "s:" argument.
func (a arg) String() (string, bool) {
	if !a.isString() {
		return "", false
	}
	return string(a[2:]), true
}

// Decode unmarshals a "j:" argument into v.
func (a arg) Decode(v any) error {
	if !a.isJSON() {
		return fmt.Errorf("amp: argument is not json (prefix %q)", prefix(a))
	}
	return json.Unmarshal(a[2:], v)
}

func prefix(a arg) string {
	if len(a) < 2 {
		return string(a)
	}
	return string(a[:2])
}

// encodeFrame packs args the way axon does: strings as "s:", byte slices
// raw, everything else as "j:" JSON.
func encodeFrame(args ...any) ([]byte, error) {
	if len(args) > maxArgs {
		return nil, errTooManyArgs
	}

	payloads := make([][]byte, len(args))
	size := 1
	for i, a := range args {
		var p []byte
		switch v := a.(type) {
		case string:
			p = append([]byte("s:"), v...)
		case []byte:
			p = v
		default:
			js, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("amp: encode argument %d: %w", i, err)
			}
			p = append([]byte("j:"), js...)
		}
		payloads[i] = p
		size += 4 + len(p)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, byte(ampVersion<<4|len(args)))
	for _, p := range payloads {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}
	return buf, nil
}

// frameReader decodes consecutive frames from a stream.
type frameReader struct {
	r *bufio.Reader
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: bufio.NewReaderSize(r, 64<<10)}
}

func (fr *frameReader) next() ([]arg, error) {
	header, err := fr.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if v := header >> 4; v != ampVersion {
		return nil, fmt.Errorf("amp: unsupported version %d", v)
	}

	argc := int(header & 0x0f)
	args := make([]arg, argc)
	var lenBuf [4]byte
	for i := range argc {
		if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
			return nil, unexpected(err)
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		if n > maxArgLen {
			return nil, fmt.Errorf("amp: argument of %d bytes exceeds limit", n)
		}
		p := make([]byte, n)
		if _, err := io.ReadFull(fr.r, p); err != nil {
			return nil, unexpected(err)
		}
		args[i] = p
	}
	return args, nil
}

// unexpected turns a clean EOF in the middle of a frame into ErrUnexpectedEOF.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
