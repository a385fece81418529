package rig

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks requests the profile cannot express:
// unsupported modes, unknown VFO names, out-of-range frequencies.
var ErrInvalidArgument = errors.New("rig: invalid argument")

// UnrecognizedModeError is returned when the device reports a
// (mode code, filter) pair outside the profile's table.
type UnrecognizedModeError struct {
	Code   byte
	Filter byte
}

func (e *UnrecognizedModeError) Error() string {
	return fmt.Sprintf("rig: unrecognized mode code 0x%02X filter %d", e.Code, e.Filter)
}

// SplitPairingError is returned when a split request names a TX/RX
// pairing the hardware cannot realize. Transmit is wired to the Main
// receiver and receive to Sub; no other pairing exists.
type SplitPairingError struct {
	TXVFO VFO
	RXVFO VFO
}

func (e *SplitPairingError) Error() string {
	return fmt.Sprintf("rig: split requires TX=MAIN RX=SUB, got TX=%s RX=%s", e.TXVFO, e.RXVFO)
}

// TransactionError wraps a failure from the transaction engine,
// naming the sub-step that failed so callers can tell a failed dual
// watch toggle from a failed select over a lossy serial link.
type TransactionError struct {
	Step string
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("rig: %s failed: %v", e.Step, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
