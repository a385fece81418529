package civ

import (
	"context"
	"fmt"
)

// Function identifies a switchable rig function. The mapping to
// command/subcommand bytes is profile-independent for the functions
// listed here.
type Function int

const (
	FuncDualWatch Function = iota
	FuncTone
	FuncTSQL
	FuncCSQL
	FuncDSQL
	FuncVOX
)

var funcNames = map[Function]string{
	FuncDualWatch: "DUAL_WATCH",
	FuncTone:      "TONE",
	FuncTSQL:      "TSQL",
	FuncCSQL:      "CSQL",
	FuncDSQL:      "DSQL",
	FuncVOX:       "VOX",
}

func (f Function) String() string {
	if n, ok := funcNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FUNC(%d)", int(f))
}

// ParseFunction resolves a function by its conventional name.
func ParseFunction(name string) (Function, error) {
	for f, n := range funcNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("civ: unknown function %q", name)
}

// Subcommands of CmdCtlFunc for the switchable functions.
const (
	subFuncTone = 0x42
	subFuncTSQL = 0x43
	subFuncVOX  = 0x46
	subFuncDSQL = 0x4F
	subFuncCSQL = 0x5B
)

// Level identifies a settable or readable analog level.
type Level int

const (
	LevelAF Level = iota
	LevelSQL
	LevelRFPower
	LevelMicGain
	LevelVoxGain
	LevelRawStr // S-meter, read-only
)

var levelNames = map[Level]string{
	LevelAF:      "AF",
	LevelSQL:     "SQL",
	LevelRFPower: "RFPOWER",
	LevelMicGain: "MICGAIN",
	LevelVoxGain: "VOXGAIN",
	LevelRawStr:  "RAWSTR",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel resolves a level by its conventional name.
func ParseLevel(name string) (Level, error) {
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("civ: unknown level %q", name)
}

var levelSubs = map[Level]struct {
	cmd byte
	sub int
}{
	LevelAF:      {CmdCtlLevel, 0x01},
	LevelSQL:     {CmdCtlLevel, 0x03},
	LevelRFPower: {CmdCtlLevel, 0x0A},
	LevelMicGain: {CmdCtlLevel, 0x0B},
	LevelVoxGain: {CmdCtlLevel, 0x16},
	LevelRawStr:  {CmdRdMeter, 0x02},
}

// Controls implements the generic function/level get-set logic shared
// across device profiles on top of a Transactor.
type Controls struct {
	tr Transactor
}

// NewControls wraps a transactor.
func NewControls(tr Transactor) *Controls {
	return &Controls{tr: tr}
}

// SetFunc switches a rig function on or off. Dual watch rides on the
// VFO-selection command rather than the function command; every other
// function is a plain 0x16 exchange.
func (c *Controls) SetFunc(ctx context.Context, fn Function, on bool) error {
	if fn == FuncDualWatch {
		sub := SubDualOff
		if on {
			sub = SubDualOn
		}
		_, err := c.tr.Transact(ctx, CmdSetVFO, sub, nil)
		return err
	}
	sub, err := funcSub(fn)
	if err != nil {
		return err
	}
	val := byte(0)
	if on {
		val = 1
	}
	_, err = c.tr.Transact(ctx, CmdCtlFunc, sub, []byte{val})
	return err
}

// GetFunc reads a function switch state. Dual watch has no read
// command on the bus; callers that track it must do so themselves.
func (c *Controls) GetFunc(ctx context.Context, fn Function) (bool, error) {
	if fn == FuncDualWatch {
		return false, fmt.Errorf("civ: %s state is not readable on the bus", fn)
	}
	sub, err := funcSub(fn)
	if err != nil {
		return false, err
	}
	data, err := c.tr.Transact(ctx, CmdCtlFunc, sub, nil)
	if err != nil {
		return false, err
	}
	if len(data) < 1 {
		return false, fmt.Errorf("civ: empty response reading %s", fn)
	}
	return data[0] != 0, nil
}

// SetLevel sets an analog level in the device's native 0..255 range.
func (c *Controls) SetLevel(ctx context.Context, lvl Level, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("civ: level %s value %d out of range 0..255", lvl, v)
	}
	cs, ok := levelSubs[lvl]
	if !ok || cs.cmd != CmdCtlLevel {
		return fmt.Errorf("civ: level %s is not settable", lvl)
	}
	_, err := c.tr.Transact(ctx, cs.cmd, cs.sub, LevelToBCD(v))
	return err
}

// GetLevel reads an analog level in the device's native 0..255 range.
func (c *Controls) GetLevel(ctx context.Context, lvl Level) (int, error) {
	cs, ok := levelSubs[lvl]
	if !ok {
		return 0, fmt.Errorf("civ: unknown level %s", lvl)
	}
	data, err := c.tr.Transact(ctx, cs.cmd, cs.sub, nil)
	if err != nil {
		return 0, err
	}
	return BCDToLevel(data)
}

func funcSub(fn Function) (int, error) {
	switch fn {
	case FuncTone:
		return subFuncTone, nil
	case FuncTSQL:
		return subFuncTSQL, nil
	case FuncCSQL:
		return subFuncCSQL, nil
	case FuncDSQL:
		return subFuncDSQL, nil
	case FuncVOX:
		return subFuncVOX, nil
	}
	return 0, fmt.Errorf("civ: unknown function %s", fn)
}
