package main

import (
	"testing"
)

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"145.5", 145_500_000},     // decimal point means MHz
		{"433.125", 433_125_000},
		{"145", 145_000_000},       // small integers are MHz too
		{"433", 433_000_000},
		{"500000", 500_000},        // large integers stay Hz as written
		{"145500000", 145_500_000},
		{"10000", 10_000},          // shorthand threshold, exclusive
	}

	for _, c := range cases {
		got, err := parseFrequency(c.in)
		if err != nil {
			t.Errorf("parseFrequency(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseFrequency(%q) = %d, want %d", c.in, got, c.want)
		}
	}

	for _, in := range []string{"", "abc", "-145.5", "0"} {
		if _, err := parseFrequency(in); err == nil {
			t.Errorf("parseFrequency(%q): expected error", in)
		}
	}
}
