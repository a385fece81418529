package civ

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// fakePort simulates the half-duplex CI-V bus: every command written
// is echoed back (as the real bus does) and then answered with the
// scripted frames.
type fakePort struct {
	pr      *io.PipeReader
	pw      *io.PipeWriter
	respond func(f Frame) [][]byte
}

func newFakePort(respond func(f Frame) [][]byte) *fakePort {
	pr, pw := io.Pipe()
	return &fakePort{pr: pr, pw: pw, respond: respond}
}

func (p *fakePort) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	f, err := ParseFrame(b)
	if err != nil {
		return 0, err
	}
	echo := append([]byte(nil), b...)
	go func() {
		p.pw.Write(echo)
		for _, raw := range p.respond(f) {
			p.pw.Write(raw)
		}
	}()
	return len(b), nil
}

func (p *fakePort) Close() error { return p.pw.Close() }

const testRadioAddr = 0x8C

func TestConnTransact(t *testing.T) {
	t.Run("Data Response", func(t *testing.T) {
		freq := []byte{0x00, 0x00, 0x50, 0x45, 0x01}
		port := newFakePort(func(f Frame) [][]byte {
			if f.Cmd() != CmdRdFreq {
				t.Errorf("Expected command 03, got %02X", f.Cmd())
			}
			body := append([]byte{CmdRdFreq}, freq...)
			return [][]byte{BuildFrame(ControllerAddr, testRadioAddr, body[0], SubNone, body[1:])}
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr)

		data, err := conn.Transact(context.Background(), CmdRdFreq, SubNone, nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !bytes.Equal(data, freq) {
			t.Errorf("Expected payload % X, got % X", freq, data)
		}
	})

	t.Run("Subcommand Stripped", func(t *testing.T) {
		port := newFakePort(func(f Frame) [][]byte {
			return [][]byte{BuildFrame(ControllerAddr, testRadioAddr, CmdRdMeter, 0x02, []byte{0x01, 0x28})}
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr)

		data, err := conn.Transact(context.Background(), CmdRdMeter, 0x02, nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !bytes.Equal(data, []byte{0x01, 0x28}) {
			t.Errorf("Expected payload 01 28, got % X", data)
		}
	})

	t.Run("OK Acknowledgement", func(t *testing.T) {
		port := newFakePort(func(f Frame) [][]byte {
			return [][]byte{BuildFrame(ControllerAddr, testRadioAddr, AckOK, SubNone, nil)}
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr)

		data, err := conn.Transact(context.Background(), CmdSetVFO, SubVFOMain, nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(data) != 0 {
			t.Errorf("Expected empty payload, got % X", data)
		}
	})

	t.Run("Negative Acknowledgement", func(t *testing.T) {
		port := newFakePort(func(f Frame) [][]byte {
			return [][]byte{BuildFrame(ControllerAddr, testRadioAddr, AckNG, SubNone, nil)}
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr)

		_, err := conn.Transact(context.Background(), CmdSetFreq, SubNone, FrequencyToBCD(600_000_000))
		if !errors.Is(err, ErrNegativeAck) {
			t.Errorf("Expected ErrNegativeAck, got: %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		port := newFakePort(func(f Frame) [][]byte {
			return nil // radio never answers
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr, WithTimeout(50*time.Millisecond))

		_, err := conn.Transact(context.Background(), CmdRdFreq, SubNone, nil)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("Expected ErrTimeout, got: %v", err)
		}
	})

	t.Run("Context Deadline Bounds The Wait", func(t *testing.T) {
		port := newFakePort(func(f Frame) [][]byte {
			return nil
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr) // default 1s fallback

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := conn.Transact(ctx, CmdRdFreq, SubNone, nil)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("Expected ErrTimeout, got: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Errorf("Expected the deadline to bound the wait, took %v", elapsed)
		}
	})

	t.Run("Other Bus Traffic Ignored", func(t *testing.T) {
		port := newFakePort(func(f Frame) [][]byte {
			return [][]byte{
				// Frame from a different radio on the shared bus.
				BuildFrame(ControllerAddr, 0x94, CmdRdFreq, SubNone, []byte{0x00, 0x00, 0x00, 0x07, 0x00}),
				BuildFrame(ControllerAddr, testRadioAddr, AckOK, SubNone, nil),
			}
		})
		defer port.Close()
		conn := NewConn(port, testRadioAddr)

		data, err := conn.Transact(context.Background(), CmdSetVFO, SubDualOn, nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(data) != 0 {
			t.Errorf("Expected empty payload, got % X", data)
		}
	})
}
