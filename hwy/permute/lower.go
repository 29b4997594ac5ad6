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
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

var (
	// ErrPatternLength is returned when a pattern does not have one entry
	// per lane of the layout.
	ErrPatternLength = errors.New("permute: pattern length does not match lane count")
	// ErrIndexRange is returned when a shuffle index addresses no source
	// lane. It is the same error pattern.Validate reports.
	ErrIndexRange = pattern.ErrIndexRange
	// ErrDescriptor is returned for Blend or ZeroBlend entries outside
	// their defined values.
	ErrDescriptor = errors.New("permute: invalid pattern descriptor")
)

// Lowering is the resolved realization of one static operation on one
// layout: the program that performs it and the choices that produced it.
type Lowering struct {
	Family  Family
	Target  hwy.Target
	Layout  hwy.Layout
	Sources int
	Program *Program
	Choices []Choice
}

// Cost returns the estimated cost of the program.
func (l *Lowering) Cost() hwy.Cost {
	return l.Program.Cost()
}

func (l *Lowering) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %v on %s\n", l.Family, l.Layout, l.Target.Name())
	for _, c := range l.Choices {
		fmt.Fprintf(&sb, "  %v\n", c)
	}
	sb.WriteString(l.Program.String())
	return sb.String()
}

// LowerShuffle resolves a single-source shuffle of a vector of layout l.
func LowerShuffle(t hwy.Target, l hwy.Layout, p pattern.Shuffle) (*Lowering, error) {
	return lowerShuffleFrom(t, l, p, 1)
}

// LowerShuffleTwo resolves a shuffle over two vectors of layout l; index
// j < l.Lanes reads the first vector, the rest the second.
func LowerShuffleTwo(t hwy.Target, l hwy.Layout, p pattern.Shuffle) (*Lowering, error) {
	return lowerShuffleFrom(t, l, p, 2)
}

func lowerShuffleFrom(t hwy.Target, l hwy.Layout, p pattern.Shuffle, sources int) (*Lowering, error) {
	if len(p) != l.Lanes {
		return nil, fmt.Errorf("%w: %d entries for %v", ErrPatternLength, len(p), l)
	}
	if err := p.Validate(sources); err != nil {
		return nil, err
	}
	family := FamilyShuffle
	if sources == 2 {
		family = FamilyPair
	}
	b, srcs := start(t, l, sources)
	out := lowerShuffle(b, l, srcs, p, "")
	return b.result(family, l, sources, out)
}

// LowerBlend resolves a blend of two vectors of layout l.
func LowerBlend(t hwy.Target, l hwy.Layout, p pattern.Blend) (*Lowering, error) {
	if len(p) != l.Lanes {
		return nil, fmt.Errorf("%w: %d entries for %v", ErrPatternLength, len(p), l)
	}
	if i := slices.IndexFunc(p, func(s pattern.Side) bool { return s < pattern.Either || s > pattern.Right }); i >= 0 {
		return nil, fmt.Errorf("%w: lane %d is %d", ErrDescriptor, i, p[i])
	}
	b, srcs := start(t, l, 2)
	out := lowerBlend(b, l, srcs[0], srcs[1], p, "")
	return b.result(FamilyBlend, l, 2, out)
}

// LowerZeroBlend resolves a conditional zeroing of a vector of layout l.
func LowerZeroBlend(t hwy.Target, l hwy.Layout, p pattern.ZeroBlend) (*Lowering, error) {
	if len(p) != l.Lanes {
		return nil, fmt.Errorf("%w: %d entries for %v", ErrPatternLength, len(p), l)
	}
	if i := slices.IndexFunc(p, func(k pattern.Keep) bool { return k < pattern.DontCare || k > pattern.KeepLane }); i >= 0 {
		return nil, fmt.Errorf("%w: lane %d is %d", ErrDescriptor, i, p[i])
	}
	b, srcs := start(t, l, 1)
	out := lowerZeroBlend(b, l, srcs[0], p, "")
	return b.result(FamilyZeroBlend, l, 1, out)
}

// start creates a builder whose inputs are the leaf registers of sources
// vectors of layout l, and returns them grouped per vector.
func start(t hwy.Target, l hwy.Layout, sources int) (*builder, [][]Value) {
	regs := l.Registers()
	b := newBuilder(t, lo.Times(sources*regs, func(int) int { return l.RegisterBytes() }))
	srcs := lo.Chunk(b.inputValues(), regs)
	return b, srcs
}

func (b *builder) result(f Family, l hwy.Layout, sources int, out []Value) (*Lowering, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Lowering{
		Family:  f,
		Target:  b.target,
		Layout:  l,
		Sources: sources,
		Program: b.finish(out),
		Choices: b.choices,
	}, nil
}

func leafLowering(t hwy.Target, l hwy.Layout) lowering {
	return lowering{target: t, elem: l.Elem.Size(), size: l.RegisterBytes()}
}

// lowerShuffle lowers p over srcs, each a vector of layout l given by its
// leaf registers, and returns the leaf registers of the result.
//
// A leaf layout is solved in one register; a sub-native pattern is padded
// with don't-care lanes. A super-native layout splits every source into
// halves and solves each output half over all of them: index j of source s
// becomes lane j%h of half source 2s+j/h.
func lowerShuffle(b *builder, l hwy.Layout, srcs [][]Value, p pattern.Shuffle, at string) []Value {
	n := l.Lanes
	half, super := l.Halves()
	if !super {
		rl := l.RegisterLanes()
		q := p.Remap(func(j int) int { return j/n*rl + j%n }).Pad(rl)
		regs := lo.Map(srcs, func(s []Value, _ int) Value { return s[0] })
		b.path = at
		return []Value{lowerLeaf(b, leafLowering(b.target, l), regs, q)}
	}
	h := n / 2
	halves := make([][]Value, 0, 2*len(srcs))
	for _, s := range srcs {
		halves = append(halves, s[:len(s)/2], s[len(s)/2:])
	}
	remap := func(j int) int { return (j/n*2+j%n/h)*h + j%h }
	lower := lowerShuffle(b, half, halves, p.Lower().Remap(remap), path.Join(at, "lo"))
	upper := lowerShuffle(b, half, halves, p.Upper().Remap(remap), path.Join(at, "hi"))
	return append(lower, upper...)
}

// lowerLeaf solves a pattern over any number of registers of one native
// size. One source is a shuffle, two a pair; with more, the sources are
// split into two groups solved recursively and blended.
func lowerLeaf(b *builder, c lowering, regs []Value, p pattern.Shuffle) Value {
	n := c.lanes()
	srcs := p.Sources(n)
	switch len(srcs) {
	case 0:
		return chooseShuffle(b, c, regs[0], p)
	case 1:
		s := srcs[0]
		return chooseShuffle(b, c, regs[s], p.ConfinedTo(s, n, pattern.Any))
	case 2:
		q := p.Remap(func(j int) int {
			if j/n == srcs[0] {
				return j % n
			}
			return n + j%n
		})
		return choosePair(b, c, regs[srcs[0]], regs[srcs[1]], q)
	}
	left, right := srcs[:len(srcs)/2], srcs[len(srcs)/2:]
	x := lowerLeaf(b, c, pick(regs, left), restrict(p, n, left, true))
	y := lowerLeaf(b, c, pick(regs, right), restrict(p, n, right, false))
	sel := lo.Map(p, func(d, _ int) pattern.Side {
		switch {
		case d >= 0 && slices.Contains(right, d/n):
			return pattern.Right
		case d == pattern.Any:
			return pattern.Either
		default:
			return pattern.Left
		}
	})
	return chooseBlend(b, c, x, y, sel)
}

func pick(regs []Value, srcs []int) []Value {
	return lo.Map(srcs, func(s, _ int) Value { return regs[s] })
}

// restrict keeps the lanes of p reading one of srcs, renumbered to the
// position of their source in srcs. Zero lanes survive when keepZero is set.
func restrict(p pattern.Shuffle, n int, srcs []int, keepZero bool) pattern.Shuffle {
	return lo.Map(p, func(d, _ int) int {
		switch {
		case d == pattern.Zero && keepZero:
			return pattern.Zero
		case d < 0:
			return pattern.Any
		}
		if pos := slices.Index(srcs, d/n); pos >= 0 {
			return pos*n + d%n
		}
		return pattern.Any
	})
}

func lowerBlend(b *builder, l hwy.Layout, x, y []Value, p pattern.Blend, at string) []Value {
	half, super := l.Halves()
	if !super {
		b.path = at
		return []Value{chooseBlend(b, leafLowering(b.target, l), x[0], y[0], p.Pad(l.RegisterLanes()))}
	}
	m := len(x) / 2
	lower := lowerBlend(b, half, x[:m], y[:m], p.Lower(), path.Join(at, "lo"))
	upper := lowerBlend(b, half, x[m:], y[m:], p.Upper(), path.Join(at, "hi"))
	return append(lower, upper...)
}

func lowerZeroBlend(b *builder, l hwy.Layout, x []Value, p pattern.ZeroBlend, at string) []Value {
	half, super := l.Halves()
	if !super {
		b.path = at
		return []Value{chooseZeroBlend(b, leafLowering(b.target, l), x[0], p.Pad(l.RegisterLanes()))}
	}
	m := len(x) / 2
	lower := lowerZeroBlend(b, half, x[:m], p.Lower(), path.Join(at, "lo"))
	upper := lowerZeroBlend(b, half, x[m:], p.Upper(), path.Join(at, "hi"))
	return append(lower, upper...)
}
