package profile

import (
	"testing"
)

func TestID5100Validate(t *testing.T) {
	if err := ID5100().Validate(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestValidateRejectsBadProfiles(t *testing.T) {
	t.Run("Missing Model", func(t *testing.T) {
		p := ID5100()
		p.Model = ""
		if err := p.Validate(); err == nil {
			t.Error("Expected error for missing model")
		}
	})

	t.Run("Missing Address", func(t *testing.T) {
		p := ID5100()
		p.CIVAddress = 0
		if err := p.Validate(); err == nil {
			t.Error("Expected error for missing CI-V address")
		}
	})

	t.Run("Inverted Range", func(t *testing.T) {
		p := ID5100()
		p.RXRanges[Region2] = []FreqRange{
			{LowHz: 174_000_000, HighHz: 118_000_000, Modes: MaskFM},
		}
		if err := p.Validate(); err == nil {
			t.Error("Expected error for inverted range")
		}
	})

	t.Run("Empty Mode Set", func(t *testing.T) {
		p := ID5100()
		p.TXRanges[Region2] = []FreqRange{
			{LowHz: 144_000_000, HighHz: 148_000_000},
		}
		if err := p.Validate(); err == nil {
			t.Error("Expected error for empty mode set")
		}
	})

	t.Run("Non-Ascending Calibration", func(t *testing.T) {
		p := ID5100()
		p.StrCal = Calibration{{Raw: 100, DB: 0}, {Raw: 100, DB: 10}}
		if err := p.Validate(); err == nil {
			t.Error("Expected error for non-ascending calibration")
		}
	})
}

func TestInRXRange(t *testing.T) {
	p := ID5100()

	cases := []struct {
		hz   uint64
		want bool
	}{
		{145_500_000, true},
		{118_000_000, true},  // low edge, inclusive
		{174_000_000, true},  // high edge, inclusive
		{433_000_000, true},  // UHF range
		{200_000_000, false}, // between the two ranges
		{28_500_000, false},  // HF, not covered
		{600_000_000, false},
	}

	for _, c := range cases {
		if got := p.InRXRange(Region2, c.hz); got != c.want {
			t.Errorf("InRXRange(%d) = %v, want %v", c.hz, got, c.want)
		}
	}
}

func TestRXModesAt(t *testing.T) {
	p := ID5100()

	modes := p.RXModesAt(Region2, 145_500_000)
	if !modes.Has(MaskFM | MaskDV | MaskAM) {
		t.Errorf("Expected full mode set at 145.5 MHz, got %s", modes)
	}

	if modes := p.RXModesAt(Region2, 28_500_000); modes != 0 {
		t.Errorf("Expected no modes outside coverage, got %s", modes)
	}
}

func TestTXModesExcludeAM(t *testing.T) {
	p := ID5100()
	for _, region := range []Region{Region1, Region2} {
		for _, r := range p.TXRanges[region] {
			if r.Modes.Has(MaskAM) {
				t.Errorf("Region %d TX range %d-%d must not allow AM transmit", region, r.LowHz, r.HighHz)
			}
			if !r.Modes.Has(MaskFM | MaskDV) {
				t.Errorf("Region %d TX range %d-%d missing FM/DV", region, r.LowHz, r.HighHz)
			}
		}
	}
}

func TestCalibrationDB(t *testing.T) {
	cal := Calibration{
		{Raw: 0, DB: -60},
		{Raw: 128, DB: 0},
		{Raw: 255, DB: 60},
	}

	cases := []struct {
		raw  int
		want int
	}{
		{-10, -60}, // clamped low
		{0, -60},
		{64, -30},
		{128, 0},
		{255, 60},
		{300, 60}, // clamped high
	}

	for _, c := range cases {
		if got := cal.DB(c.raw); got != c.want {
			t.Errorf("DB(%d) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestModeMaskString(t *testing.T) {
	if s := (MaskFM | MaskDV).String(); s != "FM|DV" {
		t.Errorf("Expected FM|DV, got %s", s)
	}
	if s := ModeMask(0).String(); s != "NONE" {
		t.Errorf("Expected NONE, got %s", s)
	}
}
