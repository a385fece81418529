package profile

// Capability data from chapter 13 of the ID-5100 instruction manual.
// Rig control goes through the port labeled SP2; the port labeled
// Data is only used for firmware upgrades.

const id5100Modes = MaskAM | MaskAMN | MaskFM | MaskFMN | MaskDV

// ID5100 returns the capability descriptor for the Icom ID-5100.
func ID5100() *Profile {
	return &Profile{
		Model:        "ID-5100",
		Manufacturer: "Icom",

		CIVAddress:     0x8C,
		Mode731:        false,
		NoXchg:         true,
		DualWatchSplit: true,

		BaudMin:   4800,
		BaudMax:   19200,
		TimeoutMs: 1000,

		RXRanges: map[Region][]FreqRange{
			Region1: {
				{LowHz: 118_000_000, HighHz: 174_000_000, Modes: id5100Modes, MinPower: -1, MaxPower: -1},
				{LowHz: 375_000_000, HighHz: 550_000_000, Modes: id5100Modes, MinPower: -1, MaxPower: -1},
			},
			Region2: {
				{LowHz: 118_000_000, HighHz: 174_000_000, Modes: id5100Modes, MinPower: -1, MaxPower: -1},
				{LowHz: 375_000_000, HighHz: 550_000_000, Modes: id5100Modes, MinPower: -1, MaxPower: -1},
			},
		},
		TXRanges: map[Region][]FreqRange{
			Region1: {
				{LowHz: 144_000_000, HighHz: 146_000_000, Modes: id5100Modes &^ MaskAM, MinPower: 5, MaxPower: 25},
				{LowHz: 430_000_000, HighHz: 440_000_000, Modes: id5100Modes &^ MaskAM, MinPower: 5, MaxPower: 25},
			},
			Region2: {
				{LowHz: 144_000_000, HighHz: 148_000_000, Modes: id5100Modes &^ MaskAM, MinPower: 5, MaxPower: 50},
				{LowHz: 430_000_000, HighHz: 450_000_000, Modes: id5100Modes &^ MaskAM, MinPower: 5, MaxPower: 50},
			},
		},

		Functions: FuncTone | FuncTSQL | FuncCSQL | FuncDSQL | FuncDualWatch | FuncVOX,
		Levels:    LevelAF | LevelSQL | LevelRawStr | LevelRFPower | LevelMicGain | LevelVoxGain,

		// Order matters: the first matching row is the normal filter.
		Filters: []FilterRange{
			{Modes: MaskFM | MaskAM, WidthHz: 12_000},
			{Modes: MaskFM | MaskAM, WidthHz: 6_000},
		},

		// Tuning step is not controllable over CI-V. Memory channels
		// are only reachable through the separate clone mode.
		TuningSteps: nil,

		// No published measurement for this model; a straight line
		// through the raw range until someone measures one.
		StrCal: Calibration{
			{Raw: 0, DB: -60},
			{Raw: 255, DB: 60},
		},
	}
}
