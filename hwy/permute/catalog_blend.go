package permute

import (
	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

var (
	blendCatalog     []Strategy[pattern.Blend]
	zeroBlendCatalog []Strategy[pattern.ZeroBlend]
)

func init() {
	blendCatalog = []Strategy[pattern.Blend]{
		{Name: "left", applies: allLeft, emit: passThrough[pattern.Blend]},
		{Name: "right", applies: allRight, emit: emitRight},
		{Name: "blend-imm", applies: blendImmApplies, emit: emitBlendImm},
		{Name: "blend-var", applies: blendVarApplies, emit: emitBlendVar},
		{Name: "bitwise-select", applies: always[pattern.Blend], emit: emitBitwiseSelect},
	}
	zeroBlendCatalog = []Strategy[pattern.ZeroBlend]{
		{Name: "noop", applies: keepsAll, emit: passThrough[pattern.ZeroBlend]},
		{Name: "clear-all", applies: clearsAll, emit: emitZero[pattern.ZeroBlend]},
		{Name: "masked-zero", applies: maskedZeroApplies, emit: emitMaskedZero},
		{Name: "blend-zero", applies: always[pattern.ZeroBlend], emit: emitBlendZero},
		{Name: "and-mask", applies: always[pattern.ZeroBlend], emit: emitAndMask},
	}
}

func chooseBlend(b *builder, c lowering, x, y Value, p pattern.Blend) Value {
	return choose(b, c, FamilyBlend, blendCatalog, []Value{x, y}, p)
}

func chooseZeroBlend(b *builder, c lowering, x Value, p pattern.ZeroBlend) Value {
	return choose(b, c, FamilyZeroBlend, zeroBlendCatalog, []Value{x}, p)
}

// broadMask returns a register-sized constant with all bits of lane i set
// when bit i of bits is.
func broadMask(c lowering, bits uint64) []byte {
	m := make([]byte, c.size)
	for i := range c.lanes() {
		if bits>>i&1 == 0 {
			continue
		}
		for k := i * c.elem; k < (i+1)*c.elem; k++ {
			m[k] = 0xff
		}
	}
	return m
}

// mask materializes the lane selection bits in the target's mask form.
func mask(b *builder, c lowering, bits uint64) Value {
	if c.target.CompactMasks {
		return b.maskConst(bits, c.elem, c.size)
	}
	return b.constBytes(broadMask(c, bits))
}

func compactMasksAvailable(c lowering) bool {
	return !c.target.CompactMasks || c.supports(hwy.OpMaskConst)
}

func allLeft(_ lowering, p pattern.Blend) bool {
	return p.IsAll(pattern.Left)
}

func allRight(_ lowering, p pattern.Blend) bool {
	return p.IsAll(pattern.Right)
}

func emitRight(_ *builder, _ lowering, in []Value, _ pattern.Blend) Value {
	return in[1]
}

// blendWidth finds a lane size with an immediate blend for p, trying the
// element size first.
func blendWidth(c lowering, p pattern.Blend) (int, uint64, bool) {
	for _, w := range append([]int{c.elem}, laneWidths...) {
		if !c.supportsAt(hwy.OpBlend, w) {
			continue
		}
		if q, ok := p.Reinterpret(c.elem, w); ok {
			return w, q.Bits(), true
		}
	}
	return 0, 0, false
}

func blendImmApplies(c lowering, p pattern.Blend) bool {
	_, _, ok := blendWidth(c, p)
	return ok
}

func emitBlendImm(b *builder, c lowering, in []Value, p pattern.Blend) Value {
	w, bits, _ := blendWidth(c, p)
	return b.blend(in[0], in[1], w, bits)
}

func blendVarApplies(c lowering, _ pattern.Blend) bool {
	return c.supports(hwy.OpBlendVar) && compactMasksAvailable(c)
}

func emitBlendVar(b *builder, c lowering, in []Value, p pattern.Blend) Value {
	m := mask(b, c, p.Bits())
	return b.blendVar(in[0], in[1], m, c.elem, c.target.CompactMasks)
}

// emitBitwiseSelect computes (x &^ m) | (y & m).
func emitBitwiseSelect(b *builder, c lowering, in []Value, p pattern.Blend) Value {
	m := b.constBytes(broadMask(c, p.Bits()))
	left := b.bitwise(hwy.OpAndNot, m, in[0])
	right := b.bitwise(hwy.OpAnd, m, in[1])
	return b.bitwise(hwy.OpOr, left, right)
}

func keepsAll(_ lowering, p pattern.ZeroBlend) bool {
	return !p.RequiresZeroing()
}

func clearsAll(_ lowering, p pattern.ZeroBlend) bool {
	return p.ClearsAll()
}

func maskedZeroApplies(c lowering, _ pattern.ZeroBlend) bool {
	return c.target.CompactMasks && c.supports(hwy.OpZeroMasked) && c.supports(hwy.OpMaskConst)
}

func emitMaskedZero(b *builder, c lowering, in []Value, p pattern.ZeroBlend) Value {
	m := b.maskConst(p.Bits(), c.elem, c.size)
	return b.zeroMasked(in[0], m, c.elem)
}

func emitBlendZero(b *builder, c lowering, in []Value, p pattern.ZeroBlend) Value {
	return chooseBlend(b, c, in[0], b.zero(c.size), p.Blend())
}

func emitAndMask(b *builder, c lowering, in []Value, p pattern.ZeroBlend) Value {
	m := b.constBytes(broadMask(c, p.Bits()))
	return b.bitwise(hwy.OpAnd, m, in[0])
}
