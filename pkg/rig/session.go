package rig

import (
	"context"
	"fmt"
	"sync"

	"github.com/civgo/civd/pkg/civ"
	"github.com/civgo/civd/pkg/logging"
	"github.com/civgo/civd/pkg/profile"
)

// FuncController is the slice of the generic controls layer the
// session needs: the function switch used for dual watch, the
// pass-through function reads and the analog level get-set.
type FuncController interface {
	SetFunc(ctx context.Context, fn civ.Function, on bool) error
	GetFunc(ctx context.Context, fn civ.Function) (bool, error)
	SetLevel(ctx context.Context, lvl civ.Level, v int) error
	GetLevel(ctx context.Context, lvl civ.Level) (int, error)
}

// Session is one control session on one radio. It owns the receiver
// path state the device itself never reports: whether dual watch is
// engaged, and whether the targetable-frequency command (0x25) has
// been degraded for the rest of the session.
//
// All state mutation happens under the session lock, and a multi-step
// operation (dual watch toggle followed by VFO select) holds the lock
// across both transactions: the radio's interpretation of the select
// depends on the toggle having taken effect, so nothing may be
// interleaved between them.
type Session struct {
	mu   sync.Mutex
	tr   civ.Transactor
	fc   FuncController
	prof *profile.Profile

	region profile.Region

	current   VFO
	dualWatch bool
	x25Broken bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRegion selects the ITU region variant of the capability table.
// The default is Region 2.
func WithRegion(r profile.Region) SessionOption {
	return func(s *Session) { s.region = r }
}

// NewSession opens a control session. The radio powers up with dual
// watch off and the Main receiver active, which is what the state
// starts as; it is never persisted across sessions.
func NewSession(tr civ.Transactor, fc FuncController, prof *profile.Profile, opts ...SessionOption) *Session {
	s := &Session{
		tr:      tr,
		fc:      fc,
		prof:    prof,
		region:  profile.Region2,
		current: VFOA,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile returns the capability descriptor this session drives.
func (s *Session) Profile() *profile.Profile { return s.prof }

// CurrentVFO returns the session's active VFO.
func (s *Session) CurrentVFO() VFO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// DualWatch reports whether the session believes dual watch is
// engaged on the radio.
func (s *Session) DualWatch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dualWatch
}

// X25Degraded reports whether the targetable-frequency command has
// been written off for this session.
func (s *Session) X25Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x25Broken
}

// SetVFO selects a logical VFO. Requesting A or B switches dual watch
// off first; requesting Main or Sub switches it on first. The toggle
// is only issued when the state actually has to change, and the
// in-memory flag is committed only after the radio acknowledges the
// toggle. A toggle failure aborts the operation before any select is
// attempted, leaving the session state matching what the device last
// acknowledged.
func (s *Session) SetVFO(ctx context.Context, v VFO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setVFOLocked(ctx, v)
}

func (s *Session) setVFOLocked(ctx context.Context, v VFO) error {
	if v == VFOCurrent {
		v = s.current
	}
	physical, err := v.physical()
	if err != nil {
		return err
	}

	// The 0x25 command misbehaves in both addressing modes on this
	// radio, so it is written off on every selection rather than
	// risking a surprise failure later.
	s.x25Broken = true

	required := v.dualPath()
	if required != s.dualWatch {
		logging.Debugf("rig", "VFO %s needs dual watch %v, toggling", v, required)
		if err := s.fc.SetFunc(ctx, civ.FuncDualWatch, required); err != nil {
			return &TransactionError{Step: "dual watch toggle", Err: err}
		}
		s.dualWatch = required
	}

	if _, err := s.tr.Transact(ctx, civ.CmdSetVFO, int(physical), nil); err != nil {
		return &TransactionError{Step: "vfo select", Err: err}
	}
	s.current = v
	return nil
}

// SetSplitVFO configures split operation. The hardware fixes transmit
// on the Main receiver and receive on Sub, so the only realizable
// request is TX on A or Main; everything else is rejected before any
// transaction is attempted. The enabled flag is accepted for contract
// symmetry: this radio cannot disengage split independently, so both
// values force receive onto Sub.
func (s *Session) SetSplitVFO(ctx context.Context, rx VFO, enabled bool, tx VFO) error {
	if tx != VFOA && tx != VFOMain {
		return &SplitPairingError{TXVFO: tx, RXVFO: rx}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setVFOLocked(ctx, VFOSub)
}

// SetMode sets the operating mode. The filter subcode is fixed per
// mode on this radio, so requestedWidthHz only has to be consistent
// with the mode: zero means "whatever the mode implies", anything
// else must match it. The VFO argument is accepted for contract
// symmetry; the radio applies mode changes to whichever receiver is
// active.
func (s *Session) SetMode(ctx context.Context, v VFO, m Mode, requestedWidthHz int) error {
	code, filter, err := EncodeMode(m)
	if err != nil {
		return err
	}
	if requestedWidthHz != 0 && requestedWidthHz != modeCodes[m].widthHz {
		return fmt.Errorf("%w: mode %s has a fixed width of %d Hz", ErrInvalidArgument, m, modeCodes[m].widthHz)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tr.Transact(ctx, civ.CmdSetMode, int(code), []byte{filter}); err != nil {
		return &TransactionError{Step: "mode set", Err: err}
	}
	return nil
}

// Mode reads the active receiver's operating mode and passband width.
// A (code, filter) pair outside the profile's table is surfaced as an
// UnrecognizedModeError, never mapped to a default.
func (s *Session) Mode(ctx context.Context, v VFO) (Mode, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.tr.Transact(ctx, civ.CmdRdMode, civ.SubNone, nil)
	if err != nil {
		return 0, 0, &TransactionError{Step: "mode read", Err: err}
	}
	if len(data) < 2 {
		return 0, 0, &TransactionError{Step: "mode read", Err: fmt.Errorf("short response (%d bytes)", len(data))}
	}
	return DecodeMode(data[0], data[1])
}

// SetFrequency tunes the active receiver. The frequency must fall in
// one of the profile's receive ranges for the session's region.
func (s *Session) SetFrequency(ctx context.Context, hz uint64) error {
	if !s.prof.InRXRange(s.region, hz) {
		return fmt.Errorf("%w: %d Hz is outside the receive range", ErrInvalidArgument, hz)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tr.Transact(ctx, civ.CmdSetFreq, civ.SubNone, civ.FrequencyToBCD(hz)); err != nil {
		return &TransactionError{Step: "frequency set", Err: err}
	}
	return nil
}

// Frequency reads the active receiver's frequency.
func (s *Session) Frequency(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.tr.Transact(ctx, civ.CmdRdFreq, civ.SubNone, nil)
	if err != nil {
		return 0, &TransactionError{Step: "frequency read", Err: err}
	}
	hz, err := civ.BCDToFrequency(data)
	if err != nil {
		return 0, &TransactionError{Step: "frequency read", Err: err}
	}
	return hz, nil
}

// SetPTT keys or unkeys the transmitter.
func (s *Session) SetPTT(ctx context.Context, on bool) error {
	val := byte(0)
	if on {
		val = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tr.Transact(ctx, civ.CmdCtlPTT, 0x00, []byte{val}); err != nil {
		return &TransactionError{Step: "ptt set", Err: err}
	}
	return nil
}

// PTT reads the transmit/receive state.
func (s *Session) PTT(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.tr.Transact(ctx, civ.CmdCtlPTT, 0x00, nil)
	if err != nil {
		return false, &TransactionError{Step: "ptt read", Err: err}
	}
	if len(data) < 1 {
		return false, &TransactionError{Step: "ptt read", Err: fmt.Errorf("empty response")}
	}
	return data[0] != 0, nil
}

// SignalStrength reads the S-meter and converts the raw value to dB
// relative to S9 through the profile's calibration curve.
func (s *Session) SignalStrength(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.tr.Transact(ctx, civ.CmdRdMeter, 0x02, nil)
	if err != nil {
		return 0, &TransactionError{Step: "s-meter read", Err: err}
	}
	raw, err := civ.BCDToLevel(data)
	if err != nil {
		return 0, &TransactionError{Step: "s-meter read", Err: err}
	}
	return s.prof.StrCal.DB(raw), nil
}

// GetFunc reads a function switch. Dual watch is answered from the
// session's own state: the radio has no read command for it, and the
// session is the only writer.
func (s *Session) GetFunc(ctx context.Context, fn civ.Function) (bool, error) {
	if fn == civ.FuncDualWatch {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dualWatch, nil
	}
	on, err := s.fc.GetFunc(ctx, fn)
	if err != nil {
		return false, &TransactionError{Step: "function read", Err: err}
	}
	return on, nil
}

// SetFunc switches a rig function. Dual watch must go through SetVFO
// so the receiver path state stays consistent.
func (s *Session) SetFunc(ctx context.Context, fn civ.Function, on bool) error {
	if fn == civ.FuncDualWatch {
		return fmt.Errorf("%w: dual watch is managed through VFO selection", ErrInvalidArgument)
	}
	if err := s.fc.SetFunc(ctx, fn, on); err != nil {
		return &TransactionError{Step: "function set", Err: err}
	}
	return nil
}

// SetLevel sets an analog level in the radio's native 0..255 range.
func (s *Session) SetLevel(ctx context.Context, lvl civ.Level, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%w: level value %d out of range 0..255", ErrInvalidArgument, v)
	}
	if err := s.fc.SetLevel(ctx, lvl, v); err != nil {
		return &TransactionError{Step: "level set", Err: err}
	}
	return nil
}

// GetLevel reads an analog level in the radio's native 0..255 range.
func (s *Session) GetLevel(ctx context.Context, lvl civ.Level) (int, error) {
	v, err := s.fc.GetLevel(ctx, lvl)
	if err != nil {
		return 0, &TransactionError{Step: "level read", Err: err}
	}
	return v, nil
}
