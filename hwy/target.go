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

package hwy

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnsupportedElement is returned when no register of a target can hold
// the requested element type.
var ErrUnsupportedElement = errors.New("hwy: element type not supported by target")

// Element and register size sets. Sizes are distinct powers of two, so a
// set is the OR of its members.
const (
	e8       = 1
	e16      = 2
	e32      = 4
	e64      = 8
	allElems = e8 | e16 | e32 | e64

	r64     = 8
	r128    = 16
	r256    = 32
	r512    = 64
	allRegs = r64 | r128 | r256 | r512
)

// opRule declares that an op exists for the given element and register
// size sets at the given cost.
type opRule struct {
	elems int
	regs  int
	cost  Cost
}

// Target is the capability table of one dispatch level: which register
// sizes exist, how masks are represented, and which primitive ops are
// available at which element and register sizes.
//
// A Target is an explicit configuration value. It is immutable and safe to
// share.
type Target struct {
	Level DispatchLevel

	// RegisterBytes lists the native register sizes, strictly increasing,
	// each twice the previous one.
	RegisterBytes []int

	// CompactMasks is true when masks are one bit per lane (AVX-512 k
	// registers) rather than lane-wide all-ones patterns.
	CompactMasks bool

	ops map[Op][]opRule
}

// TargetFor returns the capability table of a dispatch level.
func TargetFor(level DispatchLevel) (Target, error) {
	switch level {
	case DispatchScalar:
		return scalarTarget(), nil
	case DispatchSSE2:
		return sse2Target(), nil
	case DispatchSSE4:
		return sse4Target(), nil
	case DispatchAVX2:
		return avx2Target(), nil
	case DispatchAVX512:
		return avx512Target(), nil
	case DispatchNEON:
		return neonTarget(), nil
	default:
		return Target{}, fmt.Errorf("hwy: no target for dispatch level %v", level)
	}
}

// MustTarget is like TargetFor but panics on error.
func MustTarget(level DispatchLevel) Target {
	t, err := TargetFor(level)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the dispatch level name.
func (t Target) Name() string {
	return t.Level.String()
}

func (t Target) String() string {
	return fmt.Sprintf("%s%v", t.Level, t.RegisterBytes)
}

// MinRegisterBytes returns the size of the smallest native register.
func (t Target) MinRegisterBytes() int {
	return t.RegisterBytes[0]
}

// MaxRegisterBytes returns the size of the widest native register.
func (t Target) MaxRegisterBytes() int {
	return t.RegisterBytes[len(t.RegisterBytes)-1]
}

// HasRegister reports whether size bytes is a native register size.
func (t Target) HasRegister(size int) bool {
	return slices.Contains(t.RegisterBytes, size)
}

// NativeWidths returns the lane counts of e that map 1:1 to registers,
// in increasing order.
func (t Target) NativeWidths(e ElementType) ([]int, error) {
	size := e.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedElement, e)
	}
	var widths []int
	for _, rb := range t.RegisterBytes {
		if rb >= size {
			widths = append(widths, rb/size)
		}
	}
	if len(widths) == 0 {
		return nil, fmt.Errorf("%w: %v on %s", ErrUnsupportedElement, e, t.Name())
	}
	return widths, nil
}

// Supports reports whether op exists for lanes of elemBytes in a register
// of regBytes. For OpCombine regBytes is the size of each input.
func (t Target) Supports(op Op, elemBytes, regBytes int) bool {
	_, ok := t.rule(op, elemBytes, regBytes)
	return ok
}

// Cost returns the cost of op at the given sizes. Unsupported ops report
// a zero cost; callers check Supports first.
func (t Target) Cost(op Op, elemBytes, regBytes int) Cost {
	r, _ := t.rule(op, elemBytes, regBytes)
	return r.cost
}

func (t Target) rule(op Op, elemBytes, regBytes int) (opRule, bool) {
	if !t.HasRegister(regBytes) {
		return opRule{}, false
	}
	switch op {
	case OpCombine:
		if !t.HasRegister(2 * regBytes) {
			return opRule{}, false
		}
	case OpLowerHalf, OpUpperHalf:
		if !t.HasRegister(regBytes / 2) {
			return opRule{}, false
		}
	}
	for _, r := range t.ops[op] {
		if r.elems&elemBytes != 0 && r.regs&regBytes != 0 {
			return r, true
		}
	}
	return opRule{}, false
}

// baseOps are available on every level: they are what the scalar fallback
// lowers everything to.
func baseOps() map[Op][]opRule {
	return map[Op][]opRule{
		OpZero:     {{allElems, allRegs, Cost{1, 1}}},
		OpConst:    {{allElems, allRegs, Cost{1, 3}}},
		OpAnd:      {{allElems, allRegs, Cost{1, 1}}},
		OpOr:       {{allElems, allRegs, Cost{1, 1}}},
		OpXor:      {{allElems, allRegs, Cost{1, 1}}},
		OpAndNot:   {{allElems, allRegs, Cost{1, 1}}},
		OpCopyLane: {{allElems, allRegs, Cost{2, 3}}},
	}
}

func scalarTarget() Target {
	return Target{Level: DispatchScalar, RegisterBytes: []int{16}, ops: baseOps()}
}

func sse2Target() Target {
	ops := baseOps()
	ops[OpShuffle32] = []opRule{{allElems, r128, Cost{1, 1}}}
	ops[OpShiftBytesUp] = []opRule{{allElems, r128, Cost{1, 1}}}
	ops[OpShiftBytesDown] = []opRule{{allElems, r128, Cost{1, 1}}}
	ops[OpInterleaveLower] = []opRule{{allElems, r128, Cost{1, 1}}}
	ops[OpInterleaveUpper] = []opRule{{allElems, r128, Cost{1, 1}}}
	return Target{Level: DispatchSSE2, RegisterBytes: []int{16}, ops: ops}
}

func sse4Target() Target {
	t := sse2Target()
	t.Level = DispatchSSE4
	t.ops[OpTableBytes] = []opRule{{e8, r128, Cost{1, 1}}}
	t.ops[OpAlignBytes] = []opRule{{e8, r128, Cost{1, 1}}}
	t.ops[OpBlend] = []opRule{{e16 | e32 | e64, r128, Cost{1, 1}}}
	t.ops[OpBlendVar] = []opRule{{allElems, r128, Cost{1, 2}}}
	return t
}

func avx2Target() Target {
	ops := baseOps()
	for _, op := range []Op{OpShuffle32, OpShiftBytesUp, OpShiftBytesDown, OpInterleaveLower, OpInterleaveUpper} {
		ops[op] = []opRule{{allElems, r128 | r256, Cost{1, 1}}}
	}
	ops[OpTableBytes] = []opRule{{e8, r128 | r256, Cost{1, 1}}}
	ops[OpAlignBytes] = []opRule{{e8, r128 | r256, Cost{1, 1}}}
	// VPBLENDD covers both sizes; PBLENDW only repeats per block, so 16-bit
	// immediates are limited to a single block.
	ops[OpBlend] = []opRule{
		{e32 | e64, r128 | r256, Cost{1, 1}},
		{e16, r128, Cost{1, 1}},
	}
	ops[OpBlendVar] = []opRule{{allElems, r128 | r256, Cost{1, 2}}}
	ops[OpPermuteLanes] = []opRule{{e32 | e64, r256, Cost{1, 3}}}
	ops[OpBlockPermute] = []opRule{{allElems, r256, Cost{1, 3}}}
	ops[OpCombine] = []opRule{{allElems, r128, Cost{1, 3}}}
	ops[OpLowerHalf] = []opRule{{allElems, r256, Cost{0, 0}}}
	ops[OpUpperHalf] = []opRule{{allElems, r256, Cost{1, 3}}}
	return Target{Level: DispatchAVX2, RegisterBytes: []int{16, 32}, ops: ops}
}

func avx512Target() Target {
	ops := baseOps()
	wide := r128 | r256 | r512
	for _, op := range []Op{OpShuffle32, OpShiftBytesUp, OpShiftBytesDown, OpInterleaveLower, OpInterleaveUpper} {
		ops[op] = []opRule{{allElems, wide, Cost{1, 1}}}
	}
	ops[OpTableBytes] = []opRule{{e8, wide, Cost{1, 1}}}
	ops[OpAlignBytes] = []opRule{{e8, wide, Cost{1, 1}}}
	ops[OpBlend] = []opRule{{allElems, wide, Cost{1, 1}}}
	ops[OpBlendVar] = []opRule{{allElems, wide, Cost{1, 1}}}
	ops[OpZeroMasked] = []opRule{{allElems, wide, Cost{1, 1}}}
	ops[OpMaskConst] = []opRule{{allElems, wide, Cost{1, 1}}}
	ops[OpPermuteLanes] = []opRule{{e16 | e32 | e64, wide, Cost{1, 3}}}
	ops[OpPermute2] = []opRule{{e16 | e32 | e64, wide, Cost{1, 3}}}
	ops[OpBlockPermute] = []opRule{{allElems, r256 | r512, Cost{1, 3}}}
	ops[OpCombine] = []opRule{{allElems, r128 | r256, Cost{1, 3}}}
	ops[OpLowerHalf] = []opRule{{allElems, r256 | r512, Cost{0, 0}}}
	ops[OpUpperHalf] = []opRule{{allElems, r256 | r512, Cost{1, 3}}}
	return Target{Level: DispatchAVX512, RegisterBytes: []int{16, 32, 64}, CompactMasks: true, ops: ops}
}

func neonTarget() Target {
	ops := baseOps()
	both := r64 | r128
	ops[OpTableBytes] = []opRule{{e8, both, Cost{1, 2}}}
	ops[OpAlignBytes] = []opRule{{e8, both, Cost{1, 2}}}
	ops[OpShiftBytesUp] = []opRule{{allElems, both, Cost{1, 2}}}
	ops[OpShiftBytesDown] = []opRule{{allElems, both, Cost{1, 2}}}
	ops[OpInterleaveLower] = []opRule{{allElems, both, Cost{1, 2}}}
	ops[OpInterleaveUpper] = []opRule{{allElems, both, Cost{1, 2}}}
	ops[OpBlendVar] = []opRule{{allElems, both, Cost{1, 2}}}
	ops[OpPermute2] = []opRule{{e8, r128, Cost{1, 3}}}
	ops[OpCombine] = []opRule{{allElems, r64, Cost{1, 2}}}
	ops[OpLowerHalf] = []opRule{{allElems, r128, Cost{0, 0}}}
	ops[OpUpperHalf] = []opRule{{allElems, r128, Cost{1, 2}}}
	return Target{Level: DispatchNEON, RegisterBytes: []int{8, 16}, ops: ops}
}
