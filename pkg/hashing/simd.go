package hashing

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// SIMDLevel identifies the best SIMD instruction set available on the current
// CPU, coarsened to the buckets that affect hashing throughput.
type SIMDLevel uint8

const (
	// SIMDNone indicates no relevant SIMD extension was detected.
	SIMDNone SIMDLevel = iota
	// SIMDNEON indicates ARM NEON (or ASIMD on arm64) support.
	SIMDNEON
	// SIMDAVX2 indicates x86 AVX2 support.
	SIMDAVX2
	// SIMDAVX512 indicates x86 AVX-512 (foundation) support.
	SIMDAVX512
)

// String provides a human-readable representation of a SIMD level.
func (l SIMDLevel) String() string {
	switch l {
	case SIMDNone:
		return "none"
	case SIMDNEON:
		return "neon"
	case SIMDAVX2:
		return "avx2"
	case SIMDAVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// simdOnce guards the process-wide SIMD probe; the result is immutable for
// the lifetime of the process, so it's computed once and cached.
var (
	simdOnce   sync.Once
	simdResult SIMDLevel
)

// DetectSIMD probes the current CPU's capabilities and returns the best
// supported SIMD level. The probe result is cached process-wide after the
// first call.
func DetectSIMD() SIMDLevel {
	simdOnce.Do(func() {
		simdResult = detectSIMD()
	})
	return simdResult
}

func detectSIMD() SIMDLevel {
	if cpuid.CPU.Supports(cpuid.AVX512F) {
		return SIMDAVX512
	}
	if cpuid.CPU.Supports(cpuid.AVX2) {
		return SIMDAVX2
	}
	if (runtime.GOARCH == "arm64" || runtime.GOARCH == "arm") && cpuid.CPU.Supports(cpuid.ASIMD) {
		return SIMDNEON
	}
	return SIMDNone
}
