package hwy

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DispatchLevel represents a SIMD instruction set tier.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD; every permutation lowers to lane
	// moves and bitwise operations on 128-bit emulated registers.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 instructions (x86-64 baseline, no PSHUFB).
	DispatchSSE2

	// DispatchSSE4 indicates SSSE3 + SSE4.1 (PSHUFB, PALIGNR, PBLENDW).
	DispatchSSE4

	// DispatchAVX2 indicates AVX2 instructions (256-bit SIMD).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 F/BW/VL instructions (512-bit SIMD).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON instructions (64- and 128-bit SIMD).
	DispatchNEON
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchSSE4:
		return "sse4"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// ParseDispatchLevel parses a level name as printed by String.
func ParseDispatchLevel(s string) (DispatchLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "fallback":
		return DispatchScalar, nil
	case "sse2":
		return DispatchSSE2, nil
	case "sse4", "sse4.1":
		return DispatchSSE4, nil
	case "avx2":
		return DispatchAVX2, nil
	case "avx512":
		return DispatchAVX512, nil
	case "neon":
		return DispatchNEON, nil
	default:
		return DispatchScalar, fmt.Errorf("hwy: unknown dispatch level %q", s)
	}
}

// Levels returns every dispatch level with a target definition.
func Levels() []DispatchLevel {
	return []DispatchLevel{DispatchScalar, DispatchSSE2, DispatchSSE4, DispatchAVX2, DispatchAVX512, DispatchNEON}
}

// currentLevel is the detected SIMD level for this runtime.
// Set by init() in dispatch_*.go files.
var currentLevel DispatchLevel

// CurrentLevel returns the SIMD instruction set being used.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentTarget returns the capability table of the current level.
func CurrentTarget() Target {
	t, err := TargetFor(currentLevel)
	if err != nil {
		panic(err)
	}
	return t
}

// NoSimdEnv checks if the HWY_NO_SIMD environment variable is set.
// When set, Highway will use scalar fallback regardless of CPU capabilities.
// This is useful for testing and debugging.
func NoSimdEnv() bool {
	val := os.Getenv("HWY_NO_SIMD")
	if val == "" {
		return false
	}
	// Any non-empty value is considered true, but also parse as bool
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// applyTargetEnv lowers the detected level to the one named by HWY_TARGET,
// provided the CPU can run it.
func applyTargetEnv(detected DispatchLevel, available func(DispatchLevel) bool) DispatchLevel {
	name := os.Getenv("HWY_TARGET")
	if name == "" {
		return detected
	}
	level, err := ParseDispatchLevel(name)
	if err != nil || !available(level) {
		return detected
	}
	return level
}
