//go:build arm64

package hwy

import "golang.org/x/sys/cpu"

func init() {
	// Check for HWY_NO_SIMD environment variable first
	if NoSimdEnv() {
		currentLevel = DispatchScalar
		return
	}

	// ARM64 (AArch64) always has NEON (ASIMD) available.
	// It's part of the ARMv8-A base architecture.
	detected := DispatchScalar
	if cpu.ARM64.HasASIMD {
		detected = DispatchNEON
	}
	currentLevel = applyTargetEnv(detected, func(level DispatchLevel) bool {
		return level == DispatchScalar || (level == DispatchNEON && cpu.ARM64.HasASIMD)
	})
}
