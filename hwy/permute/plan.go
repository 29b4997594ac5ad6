// Package permute selects and composes instruction sequences for static
// permutations of elastic vectors.
//
// A pattern is lowered once, when a Plan is compiled: for each register of
// the vector's layout the cheapest applicable strategy of the operation's
// catalog is chosen, recursing through the halves of wide vectors. The
// result is a straight-line Program over native registers. Applying a Plan
// runs that program and makes no further decisions.
//
// Example:
//
//	d := hwy.MustTag[int32](hwy.MustTarget(hwy.DispatchAVX2), 8)
//	rev := permute.MustCompileShuffle(d, pattern.Reverse(8))
//	out := rev.Apply(d.Iota(0)) // [7 6 5 4 3 2 1 0]
package permute

import (
	"fmt"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

// Plan is a compiled static operation on vectors of one tag. It is
// immutable and safe for concurrent use.
type Plan[T hwy.Lanes] struct {
	tag hwy.Tag[T]
	low *Lowering
}

// CompileShuffle lowers a single-source shuffle for vectors of d.
func CompileShuffle[T hwy.Lanes](d hwy.Tag[T], p pattern.Shuffle) (*Plan[T], error) {
	return compile(d, func() (*Lowering, error) { return LowerShuffle(d.Target(), d.Layout(), p) })
}

// CompileShuffleTwo lowers a shuffle of two vectors of d.
func CompileShuffleTwo[T hwy.Lanes](d hwy.Tag[T], p pattern.Shuffle) (*Plan[T], error) {
	return compile(d, func() (*Lowering, error) { return LowerShuffleTwo(d.Target(), d.Layout(), p) })
}

// CompileBlend lowers a blend of two vectors of d.
func CompileBlend[T hwy.Lanes](d hwy.Tag[T], p pattern.Blend) (*Plan[T], error) {
	return compile(d, func() (*Lowering, error) { return LowerBlend(d.Target(), d.Layout(), p) })
}

// CompileZeroBlend lowers a conditional zeroing of a vector of d.
func CompileZeroBlend[T hwy.Lanes](d hwy.Tag[T], p pattern.ZeroBlend) (*Plan[T], error) {
	return compile(d, func() (*Lowering, error) { return LowerZeroBlend(d.Target(), d.Layout(), p) })
}

func compile[T hwy.Lanes](d hwy.Tag[T], lower func() (*Lowering, error)) (*Plan[T], error) {
	l, err := lower()
	if err != nil {
		return nil, fmt.Errorf("compiling for %s: %w", d.Name(), err)
	}
	return &Plan[T]{tag: d, low: l}, nil
}

// MustCompileShuffle is like CompileShuffle but panics on error.
func MustCompileShuffle[T hwy.Lanes](d hwy.Tag[T], p pattern.Shuffle) *Plan[T] {
	return must(CompileShuffle(d, p))
}

// MustCompileShuffleTwo is like CompileShuffleTwo but panics on error.
func MustCompileShuffleTwo[T hwy.Lanes](d hwy.Tag[T], p pattern.Shuffle) *Plan[T] {
	return must(CompileShuffleTwo(d, p))
}

// MustCompileBlend is like CompileBlend but panics on error.
func MustCompileBlend[T hwy.Lanes](d hwy.Tag[T], p pattern.Blend) *Plan[T] {
	return must(CompileBlend(d, p))
}

// MustCompileZeroBlend is like CompileZeroBlend but panics on error.
func MustCompileZeroBlend[T hwy.Lanes](d hwy.Tag[T], p pattern.ZeroBlend) *Plan[T] {
	return must(CompileZeroBlend(d, p))
}

func must[T hwy.Lanes](p *Plan[T], err error) *Plan[T] {
	if err != nil {
		panic(err)
	}
	return p
}

// Apply runs the plan. It takes one vector per source of the operation:
// two for ShuffleTwo and Blend plans, one otherwise.
func (p *Plan[T]) Apply(in ...hwy.Vec[T]) hwy.Vec[T] {
	if len(in) != p.low.Sources {
		panic(fmt.Sprintf("permute: %s plan takes %d vectors, got %d", p.low.Family, p.low.Sources, len(in)))
	}
	var regs []hwy.Reg
	for _, v := range in {
		regs = append(regs, v.Registers()...)
	}
	return hwy.FromRegisters(p.tag, p.low.Program.Run(regs))
}

// Tag returns the tag the plan was compiled for.
func (p *Plan[T]) Tag() hwy.Tag[T] {
	return p.tag
}

// Lowering returns the resolved lowering.
func (p *Plan[T]) Lowering() *Lowering {
	return p.low
}

// Program returns the straight-line program the plan runs.
func (p *Plan[T]) Program() *Program {
	return p.low.Program
}

// Choices returns the strategy chosen at each selection, innermost first.
func (p *Plan[T]) Choices() []Choice {
	return append([]Choice(nil), p.low.Choices...)
}

// Cost returns the estimated cost of one Apply.
func (p *Plan[T]) Cost() hwy.Cost {
	return p.low.Cost()
}

func (p *Plan[T]) String() string {
	return p.low.String()
}
