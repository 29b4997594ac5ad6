package permute

import (
	"github.com/samber/lo"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

// Pair patterns index the concatenation of two registers: lanes [0,n) of
// the first and [n,2n) of the second.

var pairCatalog []Strategy[pattern.Shuffle]

func init() {
	pairCatalog = []Strategy[pattern.Shuffle]{
		{Name: "single-source", applies: singleSourceApplies, emit: emitSingleSource},
		{Name: "blend", applies: pairBlendApplies, emit: emitPairBlend},
		{Name: "unpack", applies: unpackApplies, emit: emitUnpack},
		{Name: "align", applies: alignApplies, emit: emitAlign},
		{Name: "two-table", applies: twoTableApplies, emit: emitTwoTable},
		{Name: "double-width", applies: doubleWidthApplies[pattern.Shuffle], emit: emitPairDoubleWidth},
		{Name: "permute-blend", applies: always[pattern.Shuffle], emit: emitPermuteBlend},
	}
}

func choosePair(b *builder, c lowering, x, y Value, p pattern.Shuffle) Value {
	return choose(b, c, FamilyPair, pairCatalog, []Value{x, y}, p)
}

// swapSources exchanges the roles of the two registers in p.
func swapSources(p pattern.Shuffle, n int) pattern.Shuffle {
	return p.Remap(func(j int) int { return (j + n) % (2 * n) })
}

// orient returns the operands in the order that makes the accepted form
// of p hold, trying the given order first.
func orient(in []Value, swap bool) (Value, Value) {
	if swap {
		return in[1], in[0]
	}
	return in[0], in[1]
}

func singleSourceApplies(c lowering, p pattern.Shuffle) bool {
	return len(p.Sources(c.lanes())) <= 1
}

func emitSingleSource(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	n := c.lanes()
	srcs := p.Sources(n)
	if len(srcs) == 0 {
		return chooseShuffle(b, c, in[0], p)
	}
	s := srcs[0]
	return chooseShuffle(b, c, in[s], p.ConfinedTo(s, n, pattern.Any))
}

func pairBlendApplies(c lowering, p pattern.Shuffle) bool {
	n := c.lanes()
	return lo.EveryBy(lo.Range(len(p)), func(i int) bool {
		return p[i] < 0 || p[i]%n == i
	})
}

func emitPairBlend(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	n := c.lanes()
	sel := lo.Map(p, func(d, _ int) pattern.Side {
		switch {
		case d < 0:
			return pattern.Either
		case d < n:
			return pattern.Left
		default:
			return pattern.Right
		}
	})
	return zeroLanes(b, c, chooseBlend(b, c, in[0], in[1], sel), p)
}

// interleavePattern is what InterleaveLower (upper=false) or
// InterleaveUpper produces for lanes of w bytes, as a pair pattern.
func interleavePattern(size, w int, upper bool) pattern.Shuffle {
	n, bl := size/w, min(size, blockSize)/w
	half := 0
	if upper {
		half = bl / 2
	}
	return lo.Times(n, func(i int) int {
		src := i/bl*bl + half + i%bl/2
		if i%2 == 1 {
			src += n
		}
		return src
	})
}

type unpackForm struct {
	w     int
	op    hwy.Op
	swap  bool
	found bool
}

func unpackMatch(c lowering, p pattern.Shuffle) unpackForm {
	n := c.lanes()
	for _, swap := range []bool{false, true} {
		q := p.ReplaceZeros(pattern.Any)
		if swap {
			q = swapSources(q, n)
		}
		for _, w := range laneWidths {
			if w < c.elem || c.block()/w < 2 || !c.supportsAt(hwy.OpInterleaveLower, w) {
				continue
			}
			qw, ok := q.Reinterpret(c.elem, w)
			if !ok {
				continue
			}
			if qw.Matches(interleavePattern(c.size, w, false)) {
				return unpackForm{w: w, op: hwy.OpInterleaveLower, swap: swap, found: true}
			}
			if qw.Matches(interleavePattern(c.size, w, true)) {
				return unpackForm{w: w, op: hwy.OpInterleaveUpper, swap: swap, found: true}
			}
		}
	}
	return unpackForm{}
}

func unpackApplies(c lowering, p pattern.Shuffle) bool {
	return unpackMatch(c, p).found
}

func emitUnpack(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	f := unpackMatch(c, p)
	x, y := orient(in, f.swap)
	return zeroLanes(b, c, b.interleave(f.op, x, y, f.w), p)
}

// alignShift reports whether p is a window k lanes into the concatenation
// of the (possibly swapped) registers.
func alignShift(c lowering, p pattern.Shuffle) (int, bool, bool) {
	n := c.lanes()
	for _, swap := range []bool{false, true} {
		q := p.ReplaceZeros(pattern.Any)
		if swap {
			q = swapSources(q, n)
		}
		if k, ok := q.Offset(); ok && k > 0 && k < n {
			return k, swap, true
		}
	}
	return 0, false, false
}

func alignApplies(c lowering, p pattern.Shuffle) bool {
	if c.blocks() != 1 || !c.supportsAt(hwy.OpAlignBytes, 1) {
		return false
	}
	_, _, ok := alignShift(c, p)
	return ok
}

func emitAlign(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	k, swap, _ := alignShift(c, p)
	low, high := orient(in, swap)
	return zeroLanes(b, c, b.alignBytes(high, low, k*c.elem), p)
}

func twoTableWidth(c lowering, p pattern.Shuffle) (int, pattern.Shuffle, bool) {
	q0 := p.ReplaceZeros(pattern.Any)
	for _, w := range laneWidths {
		if !c.supportsAt(hwy.OpPermute2, w) {
			continue
		}
		if q, ok := q0.Reinterpret(c.elem, w); ok {
			return w, q, true
		}
	}
	return 0, nil, false
}

func twoTableApplies(c lowering, p pattern.Shuffle) bool {
	_, _, ok := twoTableWidth(c, p)
	return ok
}

func emitTwoTable(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	w, q, _ := twoTableWidth(c, p)
	return zeroLanes(b, c, b.permute2(in[0], in[1], w, laneIndices(q)), p)
}

// emitPairDoubleWidth concatenates both registers into one of twice the
// size, where p is a single-source pattern.
func emitPairDoubleWidth(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	w := b.combine(in[0], in[1])
	v := chooseShuffle(b, c.wider(), w, p.Pad(2*len(p)))
	return b.lowerHalf(v)
}

// emitPermuteBlend shuffles each register on its own and selects between
// the results. Zero lanes are produced by the left shuffle.
func emitPermuteBlend(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	n := c.lanes()
	left := chooseShuffle(b, c, in[0], p.ConfinedTo(0, n, pattern.Any))
	right := chooseShuffle(b, c, in[1], p.ConfinedTo(1, n, pattern.Any).ReplaceZeros(pattern.Any))
	sel := lo.Map(p, func(d, _ int) pattern.Side {
		switch {
		case d >= n:
			return pattern.Right
		case d == pattern.Any:
			return pattern.Either
		default:
			return pattern.Left
		}
	})
	return chooseBlend(b, c, left, right, sel)
}
