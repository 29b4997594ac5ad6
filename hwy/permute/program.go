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

package permute

import (
	"fmt"
	"strings"

	"github.com/KurtBoehm/grex-sub000/hwy"
)

// Value names a register in a Program. Inputs are numbered first, then
// the result of each step in order.
type Value int

func (v Value) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// Step is one primitive operation of a Program. Which fields are
// meaningful depends on Op.
type Step struct {
	Op   hwy.Op
	Args []Value
	// Elem is the lane size in bytes the op acts on.
	Elem int
	// Size is the size of the result register in bytes.
	Size int
	// Imm is the byte shift of shifts and AlignBytes, the immediate of
	// Shuffle32, or the destination lane of CopyLane.
	Imm int
	// Lane is the source lane of CopyLane.
	Lane int
	// Indices are the lane indices of PermuteLanes and Permute2, or the
	// block selectors of BlockPermute.
	Indices []int
	// Table holds TableBytes indices or Const contents.
	Table []byte
	// Bits is the lane mask of Blend and MaskConst.
	Bits uint64
	// Compact is set when the mask operand of BlendVar is a compact mask.
	Compact bool
}

func (s Step) String() string {
	var sb strings.Builder
	sb.WriteString(s.Op.String())
	for i, a := range s.Args {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	switch s.Op {
	case hwy.OpZero:
		fmt.Fprintf(&sb, " %dB", s.Size)
	case hwy.OpConst, hwy.OpTableBytes:
		fmt.Fprintf(&sb, " %v", s.Table)
	case hwy.OpMaskConst, hwy.OpBlend:
		fmt.Fprintf(&sb, " e%d %#x", s.Elem, s.Bits)
	case hwy.OpShuffle32:
		fmt.Fprintf(&sb, " %#02x", s.Imm)
	case hwy.OpPermuteLanes, hwy.OpPermute2:
		fmt.Fprintf(&sb, " e%d %v", s.Elem, s.Indices)
	case hwy.OpBlockPermute:
		fmt.Fprintf(&sb, " %v", s.Indices)
	case hwy.OpCopyLane:
		fmt.Fprintf(&sb, " e%d [%d] <- [%d]", s.Elem, s.Imm, s.Lane)
	case hwy.OpAlignBytes, hwy.OpShiftBytesUp, hwy.OpShiftBytesDown:
		fmt.Fprintf(&sb, " %d", s.Imm)
	case hwy.OpBlendVar, hwy.OpZeroMasked, hwy.OpInterleaveLower, hwy.OpInterleaveUpper:
		fmt.Fprintf(&sb, " e%d", s.Elem)
	}
	return sb.String()
}

// Program is a straight-line sequence of primitive steps over native
// registers. It is immutable once built; Run holds no state and may be
// called concurrently.
type Program struct {
	inputs  []int
	steps   []Step
	outputs []Value
	cost    hwy.Cost
	exec    []func(vals []hwy.Reg)
}

// newProgram compiles steps into a closure chain so Run dispatches on
// nothing.
func newProgram(inputs []int, steps []Step, outputs []Value, cost hwy.Cost) *Program {
	p := &Program{inputs: inputs, steps: steps, outputs: outputs, cost: cost}
	p.exec = make([]func([]hwy.Reg), len(steps))
	for i, s := range steps {
		p.exec[i] = s.compile(Value(len(inputs) + i))
	}
	return p
}

// Inputs returns the sizes of the input registers.
func (p *Program) Inputs() []int {
	return append([]int(nil), p.inputs...)
}

// Steps returns the program's steps; step i defines Value(len(Inputs())+i).
func (p *Program) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Outputs returns the values holding the result registers, in lane order.
func (p *Program) Outputs() []Value {
	return append([]Value(nil), p.outputs...)
}

// Cost returns the estimated cost: summed throughput and critical-path
// latency.
func (p *Program) Cost() hwy.Cost {
	return p.cost
}

// Run executes the program on the given input registers.
func (p *Program) Run(in []hwy.Reg) []hwy.Reg {
	vals := make([]hwy.Reg, len(p.inputs)+len(p.steps))
	copy(vals, in)
	for _, f := range p.exec {
		f(vals)
	}
	out := make([]hwy.Reg, len(p.outputs))
	for i, o := range p.outputs {
		out[i] = vals[o]
	}
	return out
}

func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "inputs %v\n", p.inputs)
	for i, s := range p.steps {
		fmt.Fprintf(&sb, "  %v = %v\n", Value(len(p.inputs)+i), s)
	}
	fmt.Fprintf(&sb, "outputs %v cost %v", p.outputs, p.cost)
	return sb.String()
}

func (s Step) compile(dst Value) func(v []hwy.Reg) {
	var x, y, z Value
	if len(s.Args) > 0 {
		x = s.Args[0]
	}
	if len(s.Args) > 1 {
		y = s.Args[1]
	}
	if len(s.Args) > 2 {
		z = s.Args[2]
	}
	elem, imm := s.Elem, s.Imm
	switch s.Op {
	case hwy.OpZero:
		r := hwy.NewReg(s.Size)
		return func(v []hwy.Reg) { v[dst] = r }
	case hwy.OpConst:
		r := hwy.RegFromBytes(s.Table)
		return func(v []hwy.Reg) { v[dst] = r }
	case hwy.OpMaskConst:
		r := hwy.NewReg(8).WithLane(8, 0, s.Bits)
		return func(v []hwy.Reg) { v[dst] = r }
	case hwy.OpAnd:
		return func(v []hwy.Reg) { v[dst] = v[x].And(v[y]) }
	case hwy.OpOr:
		return func(v []hwy.Reg) { v[dst] = v[x].Or(v[y]) }
	case hwy.OpXor:
		return func(v []hwy.Reg) { v[dst] = v[x].Xor(v[y]) }
	case hwy.OpAndNot:
		return func(v []hwy.Reg) { v[dst] = v[x].AndNot(v[y]) }
	case hwy.OpCopyLane:
		lane := s.Lane
		return func(v []hwy.Reg) { v[dst] = v[x].CopyLane(v[y], elem, imm, lane) }
	case hwy.OpTableBytes:
		table := s.Table
		return func(v []hwy.Reg) { v[dst] = v[x].TableBytes(table) }
	case hwy.OpShuffle32:
		return func(v []hwy.Reg) { v[dst] = v[x].Shuffle32(uint8(imm)) }
	case hwy.OpPermuteLanes:
		idx := s.Indices
		return func(v []hwy.Reg) { v[dst] = v[x].PermuteLanes(elem, idx) }
	case hwy.OpPermute2:
		idx := s.Indices
		return func(v []hwy.Reg) { v[dst] = hwy.Permute2(v[x], v[y], elem, idx) }
	case hwy.OpBlend:
		bits := s.Bits
		return func(v []hwy.Reg) { v[dst] = hwy.Blend(v[x], v[y], elem, bits) }
	case hwy.OpBlendVar:
		compact := s.Compact
		return func(v []hwy.Reg) { v[dst] = hwy.BlendVar(v[x], v[y], v[z], elem, compact) }
	case hwy.OpZeroMasked:
		return func(v []hwy.Reg) { v[dst] = hwy.ZeroMasked(v[x], v[y], elem) }
	case hwy.OpAlignBytes:
		return func(v []hwy.Reg) { v[dst] = hwy.AlignBytes(v[x], v[y], imm) }
	case hwy.OpShiftBytesUp:
		return func(v []hwy.Reg) { v[dst] = v[x].ShiftBytesUp(imm) }
	case hwy.OpShiftBytesDown:
		return func(v []hwy.Reg) { v[dst] = v[x].ShiftBytesDown(imm) }
	case hwy.OpBlockPermute:
		sel := s.Indices
		return func(v []hwy.Reg) { v[dst] = v[x].BlockPermute(sel) }
	case hwy.OpInterleaveLower:
		return func(v []hwy.Reg) { v[dst] = hwy.InterleaveLower(v[x], v[y], elem) }
	case hwy.OpInterleaveUpper:
		return func(v []hwy.Reg) { v[dst] = hwy.InterleaveUpper(v[x], v[y], elem) }
	case hwy.OpCombine:
		return func(v []hwy.Reg) { v[dst] = hwy.Combine(v[x], v[y]) }
	case hwy.OpLowerHalf:
		return func(v []hwy.Reg) { v[dst] = v[x].LowerHalf() }
	case hwy.OpUpperHalf:
		return func(v []hwy.Reg) { v[dst] = v[x].UpperHalf() }
	default:
		panic(fmt.Sprintf("permute: cannot execute %v", s.Op))
	}
}
