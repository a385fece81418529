package rig

import (
	"fmt"

	"github.com/civgo/civd/pkg/civ"
)

// VFO is a logical frequency slot as seen by callers. The radio has
// no independent A/B pair; A and B are aliases for the Main and Sub
// receivers with dual watch switched off.
type VFO int

const (
	VFOCurrent VFO = iota
	VFOA
	VFOB
	VFOMain
	VFOSub
)

var vfoNames = map[VFO]string{
	VFOCurrent: "CURR",
	VFOA:       "A",
	VFOB:       "B",
	VFOMain:    "MAIN",
	VFOSub:     "SUB",
}

func (v VFO) String() string {
	if n, ok := vfoNames[v]; ok {
		return n
	}
	return fmt.Sprintf("VFO(%d)", int(v))
}

// ParseVFO resolves a VFO by name.
func ParseVFO(s string) (VFO, error) {
	for v, n := range vfoNames {
		if n == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown VFO %q", ErrInvalidArgument, s)
}

// dualPath reports whether the VFO addresses the receivers directly
// (Main/Sub) rather than through the conventional A/B illusion.
func (v VFO) dualPath() bool {
	return v == VFOMain || v == VFOSub
}

// physical maps the logical VFO onto the radio's two receivers:
// A and Main land on the Main receiver, B and Sub on the Sub.
func (v VFO) physical() (byte, error) {
	switch v {
	case VFOA, VFOMain:
		return civ.SubVFOMain, nil
	case VFOB, VFOSub:
		return civ.SubVFOSub, nil
	}
	return 0, fmt.Errorf("%w: VFO %s has no physical selector", ErrInvalidArgument, v)
}
