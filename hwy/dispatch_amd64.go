// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build amd64

package hwy

import "golang.org/x/sys/cpu"

func init() {
	// Check if SIMD is disabled via environment variable
	if NoSimdEnv() {
		currentLevel = DispatchScalar
		return
	}
	currentLevel = applyTargetEnv(detectX86(), x86Available)
}

func detectX86() DispatchLevel {
	switch {
	case x86Available(DispatchAVX512):
		return DispatchAVX512
	case x86Available(DispatchAVX2):
		return DispatchAVX2
	case x86Available(DispatchSSE4):
		return DispatchSSE4
	default:
		// SSE2 is baseline for amd64
		return DispatchSSE2
	}
}

func x86Available(level DispatchLevel) bool {
	switch level {
	case DispatchScalar, DispatchSSE2:
		return true
	case DispatchSSE4:
		return cpu.X86.HasSSSE3 && cpu.X86.HasSSE41
	case DispatchAVX2:
		return cpu.X86.HasAVX2
	case DispatchAVX512:
		// VPERMW and byte-granular masked moves need BW; 128/256-bit forms need VL.
		return cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW && cpu.X86.HasAVX512VL
	default:
		return false
	}
}
