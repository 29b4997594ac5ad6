package permute

import (
	"fmt"

	"github.com/KurtBoehm/grex-sub000/hwy"
)

// builder accumulates the steps of a Program while tracking its cost:
// throughput is the sum over steps, latency the longest dependency chain
// ending at each value.
type builder struct {
	target hwy.Target
	inputs []int
	steps  []Step
	// per step
	costBytes []int
	// per value
	sizes []int
	lat   []int

	throughput int
	choices    []Choice
	path       string
	err        error
}

func newBuilder(t hwy.Target, inputs []int) *builder {
	b := &builder{target: t, inputs: inputs}
	b.sizes = append(b.sizes, inputs...)
	b.lat = make([]int, len(inputs))
	return b
}

// scratch returns an empty builder whose inputs have the sizes of in.
// Strategies are priced by emitting into a scratch builder.
func (b *builder) scratch(in []Value) *builder {
	sizes := make([]int, len(in))
	for i, v := range in {
		sizes[i] = b.sizes[v]
	}
	s := newBuilder(b.target, sizes)
	s.path = b.path
	return s
}

func (b *builder) inputValues() []Value {
	in := make([]Value, len(b.inputs))
	for i := range in {
		in[i] = Value(i)
	}
	return in
}

func (b *builder) size(v Value) int {
	return b.sizes[v]
}

// cost returns the cost of everything emitted so far, with the latency of
// the chain ending at out.
func (b *builder) cost(out Value) hwy.Cost {
	return hwy.Cost{Throughput: b.throughput, Latency: b.lat[out]}
}

// emit appends s. costBytes is the register size the op is priced at,
// which differs from s.Size for Combine, the halves and MaskConst.
func (b *builder) emit(s Step, costBytes int) Value {
	eb := max(s.Elem, 1)
	if !b.target.Supports(s.Op, eb, costBytes) {
		panic(fmt.Sprintf("permute: %v e%d at %dB not available on %s", s.Op, eb, costBytes, b.target.Name()))
	}
	c := b.target.Cost(s.Op, eb, costBytes)
	ready := 0
	for _, a := range s.Args {
		ready = max(ready, b.lat[a])
	}
	b.steps = append(b.steps, s)
	b.costBytes = append(b.costBytes, costBytes)
	b.sizes = append(b.sizes, s.Size)
	b.lat = append(b.lat, ready+c.Latency)
	b.throughput += c.Throughput
	return Value(len(b.sizes) - 1)
}

// splice re-emits the steps of src, a builder created by scratch(in), on
// top of b and returns the value corresponding to out.
func (b *builder) splice(src *builder, in []Value, out Value) Value {
	m := make([]Value, 0, len(src.sizes))
	m = append(m, in...)
	for i, s := range src.steps {
		s.Args = remapArgs(s.Args, m)
		m = append(m, b.emit(s, src.costBytes[i]))
	}
	b.choices = append(b.choices, src.choices...)
	return m[out]
}

func remapArgs(args []Value, m []Value) []Value {
	out := make([]Value, len(args))
	for i, a := range args {
		out[i] = m[a]
	}
	return out
}

// finish wraps the emitted steps into a Program with the given outputs.
func (b *builder) finish(outputs []Value) *Program {
	lat := 0
	for _, o := range outputs {
		lat = max(lat, b.lat[o])
	}
	cost := hwy.Cost{Throughput: b.throughput, Latency: lat}
	return newProgram(b.inputs, b.steps, outputs, cost)
}

func (b *builder) zero(size int) Value {
	return b.emit(Step{Op: hwy.OpZero, Size: size}, size)
}

func (b *builder) constBytes(data []byte) Value {
	return b.emit(Step{Op: hwy.OpConst, Size: len(data), Table: data}, len(data))
}

// maskConst materializes a compact mask for a data register of dataBytes.
func (b *builder) maskConst(bits uint64, elem, dataBytes int) Value {
	return b.emit(Step{Op: hwy.OpMaskConst, Elem: elem, Size: compactMaskBytes, Bits: bits}, dataBytes)
}

func (b *builder) bitwise(op hwy.Op, x, y Value) Value {
	return b.emit(Step{Op: op, Args: []Value{x, y}, Size: b.size(x)}, b.size(x))
}

func (b *builder) copyLane(dst, src Value, elem, to, from int) Value {
	return b.emit(Step{Op: hwy.OpCopyLane, Args: []Value{dst, src}, Elem: elem, Size: b.size(dst), Imm: to, Lane: from}, b.size(dst))
}

func (b *builder) tableBytes(x Value, table []byte) Value {
	return b.emit(Step{Op: hwy.OpTableBytes, Args: []Value{x}, Elem: 1, Size: b.size(x), Table: table}, b.size(x))
}

func (b *builder) shuffle32(x Value, imm int) Value {
	return b.emit(Step{Op: hwy.OpShuffle32, Args: []Value{x}, Elem: 4, Size: b.size(x), Imm: imm}, b.size(x))
}

func (b *builder) permuteLanes(x Value, elem int, idx []int) Value {
	return b.emit(Step{Op: hwy.OpPermuteLanes, Args: []Value{x}, Elem: elem, Size: b.size(x), Indices: idx}, b.size(x))
}

func (b *builder) permute2(x, y Value, elem int, idx []int) Value {
	return b.emit(Step{Op: hwy.OpPermute2, Args: []Value{x, y}, Elem: elem, Size: b.size(x), Indices: idx}, b.size(x))
}

func (b *builder) blend(x, y Value, elem int, bits uint64) Value {
	return b.emit(Step{Op: hwy.OpBlend, Args: []Value{x, y}, Elem: elem, Size: b.size(x), Bits: bits}, b.size(x))
}

func (b *builder) blendVar(x, y, m Value, elem int, compact bool) Value {
	return b.emit(Step{Op: hwy.OpBlendVar, Args: []Value{x, y, m}, Elem: elem, Size: b.size(x), Compact: compact}, b.size(x))
}

func (b *builder) zeroMasked(x, m Value, elem int) Value {
	return b.emit(Step{Op: hwy.OpZeroMasked, Args: []Value{x, m}, Elem: elem, Size: b.size(x)}, b.size(x))
}

func (b *builder) alignBytes(hi, lo Value, shift int) Value {
	return b.emit(Step{Op: hwy.OpAlignBytes, Args: []Value{hi, lo}, Elem: 1, Size: b.size(lo), Imm: shift}, b.size(lo))
}

func (b *builder) shiftBytes(op hwy.Op, x Value, elem, shift int) Value {
	return b.emit(Step{Op: op, Args: []Value{x}, Elem: elem, Size: b.size(x), Imm: shift}, b.size(x))
}

func (b *builder) blockPermute(x Value, sel []int) Value {
	return b.emit(Step{Op: hwy.OpBlockPermute, Args: []Value{x}, Elem: 1, Size: b.size(x), Indices: sel}, b.size(x))
}

func (b *builder) interleave(op hwy.Op, x, y Value, elem int) Value {
	return b.emit(Step{Op: op, Args: []Value{x, y}, Elem: elem, Size: b.size(x)}, b.size(x))
}

func (b *builder) combine(lo, hi Value) Value {
	return b.emit(Step{Op: hwy.OpCombine, Args: []Value{lo, hi}, Elem: 1, Size: 2 * b.size(lo)}, b.size(lo))
}

func (b *builder) lowerHalf(x Value) Value {
	return b.emit(Step{Op: hwy.OpLowerHalf, Args: []Value{x}, Elem: 1, Size: b.size(x) / 2}, b.size(x))
}

func (b *builder) upperHalf(x Value) Value {
	return b.emit(Step{Op: hwy.OpUpperHalf, Args: []Value{x}, Elem: 1, Size: b.size(x) / 2}, b.size(x))
}

// compactMaskBytes is the register size holding a compact mask.
const compactMaskBytes = 8
