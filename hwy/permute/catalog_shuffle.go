package permute

import (
	"github.com/samber/lo"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

// tableZero is the TableBytes index that yields a zero byte.
const tableZero = 0x80

// laneWidths are the lane sizes a pattern may be reinterpreted to, widest
// first.
var laneWidths = []int{8, 4, 2, 1}

var shuffleCatalog []Strategy[pattern.Shuffle]

func init() {
	shuffleCatalog = []Strategy[pattern.Shuffle]{
		{Name: "identity", applies: identityApplies, emit: passThrough[pattern.Shuffle]},
		{Name: "zero", applies: zeroApplies, emit: emitZero[pattern.Shuffle]},
		{Name: "keep-or-zero", applies: keepOrZeroApplies, emit: emitKeepOrZero},
		{Name: "table-bytes", applies: tableBytesApplies, emit: emitTableBytes},
		{Name: "shuffle32", applies: shuffle32Applies, emit: emitShuffle32},
		{Name: "permute-lanes", applies: permuteLanesApplies, emit: emitPermuteLanes},
		{Name: "slide", applies: slideApplies, emit: emitSlide},
		{Name: "rotate", applies: rotateApplies, emit: emitRotate},
		{Name: "cross-block-tables", applies: crossBlockApplies, emit: emitCrossBlock},
		{Name: "double-width", applies: doubleWidthApplies[pattern.Shuffle], emit: emitDoubleWidth},
		{Name: "baseline", applies: always[pattern.Shuffle], emit: emitCopyLanes},
	}
}

func chooseShuffle(b *builder, c lowering, x Value, p pattern.Shuffle) Value {
	return choose(b, c, FamilyShuffle, shuffleCatalog, []Value{x}, p)
}

func always[P any](lowering, P) bool { return true }

func passThrough[P any](_ *builder, _ lowering, in []Value, _ P) Value {
	return in[0]
}

func emitZero[P any](b *builder, c lowering, _ []Value, _ P) Value {
	return b.zero(c.size)
}

// zeroLanes clears the Zero lanes of p in v.
func zeroLanes(b *builder, c lowering, v Value, p pattern.Shuffle) Value {
	if !p.RequiresZeroing() {
		return v
	}
	return chooseZeroBlend(b, c, v, p.ZeroBlend())
}

// laneIndices turns a pattern into concrete indices; don't-care lanes
// read their own position.
func laneIndices(q pattern.Shuffle) []int {
	return lo.Map(q, func(d, i int) int {
		if d < 0 {
			return i
		}
		return d
	})
}

func identityApplies(_ lowering, p pattern.Shuffle) bool {
	return p.IsIdentity()
}

func zeroApplies(_ lowering, p pattern.Shuffle) bool {
	return p.RequiresZeroing() && !p.HasIndex()
}

func keepOrZeroApplies(_ lowering, p pattern.Shuffle) bool {
	return p.RequiresZeroing() && p.HasIndex() && p.ReplaceZeros(pattern.Any).IsIdentity()
}

func emitKeepOrZero(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	return chooseZeroBlend(b, c, in[0], p.ZeroBlend())
}

func tableBytesApplies(c lowering, p pattern.Shuffle) bool {
	if !c.supportsAt(hwy.OpTableBytes, 1) {
		return false
	}
	q, _ := p.Reinterpret(c.elem, 1)
	bs := c.block()
	return lo.EveryBy(lo.Range(len(q)), func(k int) bool {
		return q[k] < 0 || q[k]/bs == k/bs
	})
}

func emitTableBytes(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	q, _ := p.Reinterpret(c.elem, 1)
	bs := c.block()
	table := lo.Map(q, func(d, _ int) byte {
		if d < 0 {
			return tableZero
		}
		return byte(d % bs)
	})
	return b.tableBytes(in[0], table)
}

// shuffle32Imm folds p onto the four 32-bit lanes of a block.
func shuffle32Imm(c lowering, p pattern.Shuffle) (int, bool) {
	q, ok := p.ReplaceZeros(pattern.Any).Reinterpret(c.elem, 4)
	if !ok {
		return 0, false
	}
	s, ok := q.AsSingleLane(4)
	if !ok {
		return 0, false
	}
	imm := 0
	for j, d := range s {
		if d < 0 {
			d = j
		}
		imm |= d << (2 * j)
	}
	return imm, true
}

func shuffle32Applies(c lowering, p pattern.Shuffle) bool {
	if c.size < 16 || !c.supportsAt(hwy.OpShuffle32, 4) {
		return false
	}
	_, ok := shuffle32Imm(c, p)
	return ok
}

func emitShuffle32(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	imm, _ := shuffle32Imm(c, p)
	return zeroLanes(b, c, b.shuffle32(in[0], imm), p)
}

// permuteWidth finds the widest lane size at which p is a PermuteLanes.
func permuteWidth(c lowering, p pattern.Shuffle) (int, pattern.Shuffle, bool) {
	q0 := p.ReplaceZeros(pattern.Any)
	for _, w := range laneWidths {
		if !c.supportsAt(hwy.OpPermuteLanes, w) {
			continue
		}
		if q, ok := q0.Reinterpret(c.elem, w); ok {
			return w, q, true
		}
	}
	return 0, nil, false
}

func permuteLanesApplies(c lowering, p pattern.Shuffle) bool {
	_, _, ok := permuteWidth(c, p)
	return ok
}

func emitPermuteLanes(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	w, q, _ := permuteWidth(c, p)
	return zeroLanes(b, c, b.permuteLanes(in[0], w, laneIndices(q)), p)
}

// slideOffset reports whether p moves every lane by the same k with zeros
// shifted in exactly where the source runs out.
func slideOffset(c lowering, p pattern.Shuffle) (int, bool) {
	k, ok := p.Offset()
	if !ok || k == 0 {
		return 0, false
	}
	n := c.lanes()
	for i, d := range p {
		if d == pattern.Zero && i+k >= 0 && i+k < n {
			return 0, false
		}
	}
	return k, true
}

func shiftOp(k int) hwy.Op {
	if k > 0 {
		return hwy.OpShiftBytesDown
	}
	return hwy.OpShiftBytesUp
}

func slideApplies(c lowering, p pattern.Shuffle) bool {
	k, ok := slideOffset(c, p)
	if !ok {
		return false
	}
	s := abs(k) * c.elem
	switch c.blocks() {
	case 1:
		return c.supports(shiftOp(k))
	case 2:
		if !c.supportsAt(hwy.OpBlockPermute, 1) {
			return false
		}
		switch {
		case s < blockSize:
			return c.supportsAt(hwy.OpAlignBytes, 1)
		case s == blockSize:
			return true
		default:
			return c.supports(shiftOp(k))
		}
	}
	return false
}

// emitSlide shifts bytes within a block, or across the two blocks of a
// 32-byte register by first moving the neighbouring block into place.
func emitSlide(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	k, _ := slideOffset(c, p)
	x, s := in[0], abs(k)*c.elem
	if c.blocks() == 1 {
		return b.shiftBytes(shiftOp(k), x, c.elem, s)
	}
	if k > 0 {
		t := b.blockPermute(x, []int{1, -1})
		switch {
		case s < blockSize:
			return b.alignBytes(t, x, s)
		case s == blockSize:
			return t
		}
		return b.shiftBytes(hwy.OpShiftBytesDown, t, c.elem, s-blockSize)
	}
	t := b.blockPermute(x, []int{-1, 0})
	switch {
	case s < blockSize:
		return b.alignBytes(x, t, blockSize-s)
	case s == blockSize:
		return t
	}
	return b.shiftBytes(hwy.OpShiftBytesUp, t, c.elem, s-blockSize)
}

func rotateApplies(c lowering, p pattern.Shuffle) bool {
	if c.blocks() != 1 || !c.supportsAt(hwy.OpAlignBytes, 1) {
		return false
	}
	k, ok := p.Rotation()
	return ok && k != 0
}

func emitRotate(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	k, _ := p.Rotation()
	return b.alignBytes(in[0], in[0], k*c.elem)
}

func crossBlockApplies(c lowering, _ pattern.Shuffle) bool {
	return c.blocks() > 1 && c.supportsAt(hwy.OpTableBytes, 1) && c.supportsAt(hwy.OpBlockPermute, 1)
}

// emitCrossBlock serves each output byte from a copy of the register whose
// blocks are rotated so the source block lines up with the destination
// block, then merges the per-rotation table lookups.
func emitCrossBlock(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	q, _ := p.Reinterpret(c.elem, 1)
	nb := c.blocks()
	acc, have := Value(0), false
	for r := range nb {
		used := false
		table := lo.Map(q, func(d, k int) byte {
			if d < 0 || (d/blockSize-k/blockSize+nb)%nb != r {
				return tableZero
			}
			used = true
			return byte(d % blockSize)
		})
		if !used {
			continue
		}
		src := in[0]
		if r != 0 {
			src = b.blockPermute(src, lo.Times(nb, func(i int) int { return (i + r) % nb }))
		}
		t := b.tableBytes(src, table)
		if have {
			acc = b.bitwise(hwy.OpOr, acc, t)
		} else {
			acc, have = t, true
		}
	}
	if !have {
		return b.zero(c.size)
	}
	return acc
}

func doubleWidthApplies[P any](c lowering, _ P) bool {
	return c.supports(hwy.OpCombine)
}

// emitDoubleWidth solves p in a register of twice the size and keeps the
// lower half.
func emitDoubleWidth(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	w := b.combine(in[0], in[0])
	v := chooseShuffle(b, c.wider(), w, p.Pad(2*len(p)))
	return b.lowerHalf(v)
}

// emitCopyLanes moves lanes one at a time. It starts from the input when
// nothing must be zeroed, so lanes already in place cost nothing.
func emitCopyLanes(b *builder, c lowering, in []Value, p pattern.Shuffle) Value {
	x := in[0]
	acc, fresh := x, false
	if p.RequiresZeroing() {
		acc, fresh = b.zero(c.size), true
	}
	for i, d := range p {
		if d < 0 || (d == i && !fresh) {
			continue
		}
		acc = b.copyLane(acc, x, c.elem, i, d)
	}
	return acc
}

const blockSize = 16

func abs(k int) int {
	if k < 0 {
		return -k
	}
	return k
}
