// Package rig implements the ID-5100 device-profile adapter: the
// translation between the generic control vocabulary (modes, VFOs,
// split) and this radio's CI-V dialect, including the dual watch
// bookkeeping the radio requires when its Main/Sub receiver pair is
// addressed as if it were a conventional VFO A/B set.
package rig

import (
	"fmt"

	"github.com/civgo/civd/pkg/profile"
)

// Mode is an operating mode of the receiver. The wide and narrow
// variants of AM and FM share a device mode code and differ only in
// the filter subcode.
type Mode int

const (
	ModeAM Mode = iota
	ModeAMN
	ModeFM
	ModeFMN
	ModeDV
)

var modeNames = map[Mode]string{
	ModeAM:  "AM",
	ModeAMN: "AM-N",
	ModeFM:  "FM",
	ModeFMN: "FM-N",
	ModeDV:  "DV",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("MODE(%d)", int(m))
}

// ParseMode resolves a mode by name, accepting the hyphenated narrow
// spellings used in the API.
func ParseMode(s string) (Mode, error) {
	for m, n := range modeNames {
		if n == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
}

// Mask returns the capability-table bit for the mode.
func (m Mode) Mask() profile.ModeMask {
	switch m {
	case ModeAM:
		return profile.MaskAM
	case ModeAMN:
		return profile.MaskAMN
	case ModeFM:
		return profile.MaskFM
	case ModeFMN:
		return profile.MaskFMN
	case ModeDV:
		return profile.MaskDV
	}
	return 0
}

// modeCode pairs the device mode code with the filter subcode and the
// passband width that subcode implies.
type modeCode struct {
	code    byte
	filter  byte
	widthHz int
}

var modeCodes = map[Mode]modeCode{
	ModeAM:  {code: 0x02, filter: 1, widthHz: 12_000},
	ModeAMN: {code: 0x02, filter: 2, widthHz: 6_000},
	ModeFM:  {code: 0x05, filter: 1, widthHz: 10_000},
	ModeFMN: {code: 0x05, filter: 2, widthHz: 5_000},
	ModeDV:  {code: 0x17, filter: 1, widthHz: 6_000},
}

// EncodeMode maps a mode to its device mode code and filter subcode.
// The mapping is total over the modes this profile supports.
func EncodeMode(m Mode) (code, filter byte, err error) {
	mc, ok := modeCodes[m]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unsupported mode %s", ErrInvalidArgument, m)
	}
	return mc.code, mc.filter, nil
}

// DecodeMode maps a device (mode code, filter subcode) pair back to
// the mode and its passband width in Hz. The protocol reserves codes
// for modes this model does not implement (other digital modes among
// them); those surface as an UnrecognizedModeError rather than being
// guessed at.
func DecodeMode(code, filter byte) (Mode, int, error) {
	for m, mc := range modeCodes {
		if mc.code == code && mc.filter == filter {
			return m, mc.widthHz, nil
		}
	}
	return 0, 0, &UnrecognizedModeError{Code: code, Filter: filter}
}
