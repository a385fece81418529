package civ

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Transactor is the generic command/acknowledgement exchange shared by
// all device profiles. Transact sends one command frame and blocks
// until the matching response arrives or the context expires. The
// returned payload is the semantic data after the echoed command and
// subcommand bytes; an OK acknowledgement yields an empty payload.
type Transactor interface {
	Transact(ctx context.Context, cmd byte, sub int, payload []byte) ([]byte, error)
}

// ErrNegativeAck is returned when the device answers a command with
// the NG (0xFA) frame.
var ErrNegativeAck = errors.New("civ: device rejected command (NG)")

// ErrTimeout is returned when no matching response arrives before the
// transaction deadline.
var ErrTimeout = errors.New("civ: transaction timed out")

// Conn is a Transactor over one half-duplex CI-V serial link. All
// transactions are serialized: the bus cannot interleave exchanges, so
// one command is in flight at a time per connection.
type Conn struct {
	radioAddr byte
	ctrlAddr  byte
	timeout   time.Duration

	mu sync.Mutex
	w  io.Writer

	frames  chan Frame
	readErr error
	errMu   sync.Mutex
	closed  chan struct{}
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithControllerAddress overrides the default controller bus address.
func WithControllerAddress(addr byte) ConnOption {
	return func(c *Conn) { c.ctrlAddr = addr }
}

// WithTimeout sets the fallback transaction timeout used when the
// caller's context has no deadline.
func WithTimeout(d time.Duration) ConnOption {
	return func(c *Conn) { c.timeout = d }
}

// NewConn wraps a serial line carrying CI-V traffic. radioAddr is the
// device's bus address from the profile. The reader goroutine runs
// until rw yields an error (typically on port close).
func NewConn(rw io.ReadWriter, radioAddr byte, opts ...ConnOption) *Conn {
	c := &Conn{
		radioAddr: radioAddr,
		ctrlAddr:  ControllerAddr,
		timeout:   time.Second,
		w:         rw,
		frames:    make(chan Frame, 16),
		closed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop(rw)
	return c
}

// readLoop decodes frames off the wire and queues those addressed to
// us. Echoes of our own commands (CI-V echo back) and traffic for
// other bus participants are dropped here.
func (c *Conn) readLoop(r io.Reader) {
	defer close(c.closed)
	br := bufio.NewReader(r)
	for {
		raw, err := readRawFrame(br)
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			return
		}
		f, err := ParseFrame(raw)
		if err != nil {
			continue // noise between frames
		}
		if f.From != c.radioAddr {
			continue
		}
		if f.To != c.ctrlAddr && f.To != BroadcastAddr {
			continue
		}
		select {
		case c.frames <- f:
		default:
			// Drop unsolicited transceive frames rather than
			// block the reader when nobody is transacting.
		}
	}
}

// readRawFrame consumes bytes up to and including the next frame
// terminator, resynchronizing on the double preamble.
func readRawFrame(br *bufio.Reader) ([]byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != FramePreamble {
			continue
		}
		b, err = br.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != FramePreamble {
			continue
		}
		raw := []byte{FramePreamble, FramePreamble}
		for len(raw) < MaxFrameLen {
			b, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
			raw = append(raw, b)
			if b == FrameEnd {
				return raw, nil
			}
		}
		// Oversized garbage; resync on the next preamble.
	}
}

// Transact implements Transactor. No retries are performed here;
// retry policy, if any, belongs to the caller.
func (c *Conn) Transact(ctx context.Context, cmd byte, sub int, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readError(); err != nil {
		return nil, fmt.Errorf("civ: connection lost: %w", err)
	}

	// Discard responses left over from an earlier timed-out exchange.
	for {
		select {
		case <-c.frames:
			continue
		default:
		}
		break
	}

	frame := BuildFrame(c.radioAddr, c.ctrlAddr, cmd, sub, payload)
	if _, err := c.w.Write(frame); err != nil {
		return nil, fmt.Errorf("civ: write failed: %w", err)
	}

	wait := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < wait {
			wait = until
		}
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		select {
		case f, ok := <-c.frames:
			if !ok {
				return nil, fmt.Errorf("civ: connection closed")
			}
			data, matched, err := matchResponse(f, cmd, sub)
			if err != nil {
				return nil, err
			}
			if matched {
				return data, nil
			}
			// Unrelated transceive frame; keep waiting.
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-deadline.C:
			return nil, ErrTimeout
		case <-c.closed:
			if err := c.readError(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("civ: connection lost: %w", err)
			}
			return nil, fmt.Errorf("civ: connection closed")
		}
	}
}

// matchResponse decides whether a frame answers the outstanding
// command and extracts its semantic payload.
func matchResponse(f Frame, cmd byte, sub int) ([]byte, bool, error) {
	if len(f.Body) == 0 {
		return nil, false, nil
	}
	switch f.Body[0] {
	case AckOK:
		return nil, true, nil
	case AckNG:
		return nil, false, ErrNegativeAck
	case cmd:
		data := f.Body[1:]
		if sub != SubNone {
			if len(data) == 0 || data[0] != byte(sub) {
				return nil, false, nil
			}
			data = data[1:]
		}
		return bytes.Clone(data), true, nil
	}
	return nil, false, nil
}

func (c *Conn) readError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.readErr
}
