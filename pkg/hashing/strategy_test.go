package hashing

import "testing"

func TestStrategyString(t *testing.T) {
	cases := map[Strategy]string{
		FastOnly: "fast-only",
		TreeOnly: "tree-only",
		Hybrid:   "hybrid",
		Auto:     "auto",
	}
	for strategy, expected := range cases {
		if got := strategy.String(); got != expected {
			t.Errorf("Strategy(%d).String() = %q, expected %q", strategy, got, expected)
		}
	}
}

func TestSIMDLevelString(t *testing.T) {
	cases := map[SIMDLevel]string{
		SIMDNone:   "none",
		SIMDNEON:   "neon",
		SIMDAVX2:   "avx2",
		SIMDAVX512: "avx512",
	}
	for level, expected := range cases {
		if got := level.String(); got != expected {
			t.Errorf("SIMDLevel(%d).String() = %q, expected %q", level, got, expected)
		}
	}
}
