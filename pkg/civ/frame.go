package civ

import (
	"fmt"
)

// CI-V framing bytes. Every frame on the bus is
// 0xFE 0xFE <to> <from> <cmd> [<sub>] [data...] 0xFD.
const (
	FramePreamble  = 0xFE
	FrameEnd       = 0xFD
	AckOK          = 0xFB
	AckNG          = 0xFA
	BroadcastAddr  = 0x00
	ControllerAddr = 0xE0 // conventional controller address on the bus
)

// Command bytes shared across Icom profiles.
const (
	CmdRdFreq   = 0x03 // read operating frequency
	CmdRdMode   = 0x04 // read operating mode
	CmdSetFreq  = 0x05 // set operating frequency
	CmdSetMode  = 0x06 // set operating mode
	CmdSetVFO   = 0x07 // VFO selection and dual watch control
	CmdSplit    = 0x0F // split/duplex control
	CmdCtlLevel = 0x14 // set/read levels (AF, SQL, RF power, ...)
	CmdRdMeter  = 0x15 // read-only meters (S-meter, SWR, ...)
	CmdCtlFunc  = 0x16 // set/read function switches
	CmdCtlPTT   = 0x1C // PTT and tuner control
)

// Subcommands of CmdSetVFO. Main/Sub selection shares the command
// with the dual watch switch.
const (
	SubVFOMain = 0xD0
	SubVFOSub  = 0xD1
	SubDualOff = 0xC0
	SubDualOn  = 0xC1
)

// SubNone marks a command that carries no subcommand byte.
const SubNone = -1

// MaxFrameLen bounds a well-formed frame; anything longer is treated
// as line noise and discarded by the reader.
const MaxFrameLen = 64

// Frame is one decoded CI-V frame with the preamble and terminator
// stripped. Body starts at the command byte.
type Frame struct {
	To   byte
	From byte
	Body []byte
}

// Cmd returns the command byte of the frame.
func (f Frame) Cmd() byte {
	if len(f.Body) == 0 {
		return 0
	}
	return f.Body[0]
}

// BuildFrame assembles a wire-ready frame. sub is SubNone when the
// command has no subcommand byte.
func BuildFrame(to, from, cmd byte, sub int, payload []byte) []byte {
	buf := make([]byte, 0, 6+len(payload)+1)
	buf = append(buf, FramePreamble, FramePreamble, to, from, cmd)
	if sub != SubNone {
		buf = append(buf, byte(sub))
	}
	buf = append(buf, payload...)
	buf = append(buf, FrameEnd)
	return buf
}

// ParseFrame validates and decodes one raw frame, including the
// preamble and terminator.
func ParseFrame(raw []byte) (Frame, error) {
	if len(raw) < 6 {
		return Frame{}, fmt.Errorf("civ: frame too short (%d bytes)", len(raw))
	}
	if raw[0] != FramePreamble || raw[1] != FramePreamble {
		return Frame{}, fmt.Errorf("civ: bad preamble % X", raw[:2])
	}
	if raw[len(raw)-1] != FrameEnd {
		return Frame{}, fmt.Errorf("civ: missing frame terminator")
	}
	return Frame{
		To:   raw[2],
		From: raw[3],
		Body: raw[4 : len(raw)-1],
	}, nil
}

// FrequencyToBCD encodes a frequency in Hz as the 5-byte little-endian
// BCD representation used by commands 0x00/0x03/0x05.
func FrequencyToBCD(hz uint64) []byte {
	out := make([]byte, 5)
	for i := 0; i < 5; i++ {
		out[i] = byte(hz%10) | byte((hz/10)%10)<<4
		hz /= 100
	}
	return out
}

// BCDToFrequency decodes the 5-byte little-endian BCD frequency
// representation back to Hz.
func BCDToFrequency(data []byte) (uint64, error) {
	if len(data) < 5 {
		return 0, fmt.Errorf("civ: frequency data too short (%d bytes)", len(data))
	}
	var hz, mul uint64 = 0, 1
	for i := 0; i < 5; i++ {
		lo := uint64(data[i] & 0x0F)
		hi := uint64(data[i] >> 4)
		if lo > 9 || hi > 9 {
			return 0, fmt.Errorf("civ: invalid BCD digit in byte %d (0x%02X)", i, data[i])
		}
		hz += lo * mul
		hz += hi * mul * 10
		mul *= 100
	}
	return hz, nil
}

// LevelToBCD encodes a 0..255 level value as the 2-byte big-endian
// BCD form used by commands 0x14/0x15 (0000..0255).
func LevelToBCD(v int) []byte {
	return []byte{
		byte(v / 100),
		byte((v / 10 % 10 << 4) | v%10),
	}
}

// BCDToLevel decodes a 2-byte BCD level value.
func BCDToLevel(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("civ: level data too short (%d bytes)", len(data))
	}
	hundreds := int(data[0] & 0x0F)
	tens := int(data[1] >> 4)
	ones := int(data[1] & 0x0F)
	if tens > 9 || ones > 9 {
		return 0, fmt.Errorf("civ: invalid BCD digit in level data % X", data[:2])
	}
	return hundreds*100 + tens*10 + ones, nil
}
