// Package profile holds the static capability descriptors consumed by
// the protocol layer. A Profile is pure data: constructed once at
// startup, validated for internal consistency, never mutated.
package profile

import (
	"fmt"
	"sort"
)

// ModeMask is a bitmask of operating modes, used in capability tables
// the same way single modes never are: a frequency range or filter row
// legalizes a set of modes at once.
type ModeMask uint16

const (
	MaskAM ModeMask = 1 << iota
	MaskAMN
	MaskFM
	MaskFMN
	MaskDV
)

var maskNames = []struct {
	mask ModeMask
	name string
}{
	{MaskAM, "AM"},
	{MaskAMN, "AM-N"},
	{MaskFM, "FM"},
	{MaskFMN, "FM-N"},
	{MaskDV, "DV"},
}

// Has reports whether every bit of m2 is present in m.
func (m ModeMask) Has(m2 ModeMask) bool { return m&m2 == m2 }

func (m ModeMask) String() string {
	s := ""
	for _, e := range maskNames {
		if m&e.mask != 0 {
			if s != "" {
				s += "|"
			}
			s += e.name
		}
	}
	if s == "" {
		return "NONE"
	}
	return s
}

// FuncMask is a bitmask of switchable functions a model supports.
type FuncMask uint32

const (
	FuncTone FuncMask = 1 << iota
	FuncTSQL
	FuncCSQL
	FuncDSQL
	FuncDualWatch
	FuncVOX
)

// LevelMask is a bitmask of supported analog levels.
type LevelMask uint32

const (
	LevelAF LevelMask = 1 << iota
	LevelSQL
	LevelRawStr
	LevelRFPower
	LevelMicGain
	LevelVoxGain
)

// Region selects one of the ITU region variants of a capability table.
type Region int

const (
	Region1 Region = iota + 1
	Region2
)

// FreqRange is one row of a frequency capability list. Power limits
// are in watts and apply to TX rows only; RX rows carry -1.
type FreqRange struct {
	LowHz    uint64
	HighHz   uint64
	Modes    ModeMask
	MinPower int
	MaxPower int
}

// Contains reports whether hz falls inside the range.
func (r FreqRange) Contains(hz uint64) bool {
	return hz >= r.LowHz && hz <= r.HighHz
}

// FilterRange is one row of the mode/filter table: the passband
// widths selectable for a set of modes.
type FilterRange struct {
	Modes   ModeMask
	WidthHz int
}

// CalPoint is one point of the S-meter calibration curve mapping a
// raw meter reading to dB relative to S9.
type CalPoint struct {
	Raw int
	DB  int
}

// Calibration is a piecewise-linear raw-to-dB curve, ordered by Raw.
type Calibration []CalPoint

// DB interpolates the dB value for a raw meter reading, clamping at
// the curve's ends.
func (c Calibration) DB(raw int) int {
	if len(c) == 0 {
		return 0
	}
	if raw <= c[0].Raw {
		return c[0].DB
	}
	last := c[len(c)-1]
	if raw >= last.Raw {
		return last.DB
	}
	i := sort.Search(len(c), func(i int) bool { return c[i].Raw >= raw })
	lo, hi := c[i-1], c[i]
	return lo.DB + (raw-lo.Raw)*(hi.DB-lo.DB)/(hi.Raw-lo.Raw)
}

// Profile describes one radio model to the generic protocol layer:
// bus addressing, dialect flags, capability lists and calibration.
// Read-only after construction.
type Profile struct {
	Model        string
	Manufacturer string

	// CI-V addressing and dialect.
	CIVAddress byte
	Mode731    bool // 4-byte frequency frames (IC-731 era dialect)
	NoXchg     bool // VFO exchange command not supported
	// Split is realized through the dual watch receiver pair rather
	// than a TX VFO: transmit is wired to Main, receive to Sub.
	DualWatchSplit bool

	// Serial line limits.
	BaudMin, BaudMax int
	TimeoutMs        int

	RXRanges map[Region][]FreqRange
	TXRanges map[Region][]FreqRange

	Functions FuncMask
	Levels    LevelMask

	Filters     []FilterRange
	TuningSteps []int // Hz; empty means step is not controllable

	StrCal Calibration
}

// Validate checks the descriptor for internal consistency. It is run
// once at load time; a profile that fails validation is a programming
// error, not a runtime condition.
func (p *Profile) Validate() error {
	if p.Model == "" {
		return fmt.Errorf("profile: model name is required")
	}
	if p.CIVAddress == 0 {
		return fmt.Errorf("profile %s: CI-V address is required", p.Model)
	}
	if p.BaudMin > p.BaudMax {
		return fmt.Errorf("profile %s: baud range %d..%d inverted", p.Model, p.BaudMin, p.BaudMax)
	}
	for region, ranges := range p.RXRanges {
		if err := validateRanges(p.Model, "rx", region, ranges); err != nil {
			return err
		}
	}
	for region, ranges := range p.TXRanges {
		if err := validateRanges(p.Model, "tx", region, ranges); err != nil {
			return err
		}
	}
	for i := 1; i < len(p.StrCal); i++ {
		if p.StrCal[i].Raw <= p.StrCal[i-1].Raw {
			return fmt.Errorf("profile %s: calibration curve not ascending at point %d", p.Model, i)
		}
	}
	return nil
}

func validateRanges(model, kind string, region Region, ranges []FreqRange) error {
	for i, r := range ranges {
		if r.LowHz >= r.HighHz {
			return fmt.Errorf("profile %s: %s range %d (region %d) inverted", model, kind, i, region)
		}
		if r.Modes == 0 {
			return fmt.Errorf("profile %s: %s range %d (region %d) has an empty mode set", model, kind, i, region)
		}
	}
	return nil
}

// InRXRange reports whether hz is receivable in the given region.
func (p *Profile) InRXRange(region Region, hz uint64) bool {
	for _, r := range p.RXRanges[region] {
		if r.Contains(hz) {
			return true
		}
	}
	return false
}

// RXModesAt returns the legal receive modes at hz, or 0 when hz is
// outside every range.
func (p *Profile) RXModesAt(region Region, hz uint64) ModeMask {
	for _, r := range p.RXRanges[region] {
		if r.Contains(hz) {
			return r.Modes
		}
	}
	return 0
}
