package hwy

// compactMaskBytes is the size of the register holding a compact mask.
const compactMaskBytes = 8

// Mask represents a per-lane boolean, laid out parallel to a Vec of the
// same tag. On targets with compact masks each leaf holds one bit per
// lane; otherwise each leaf is a register whose lanes are all ones or all
// zeros.
//
// Mask instances should not be created directly; use comparison operations
// like Equal or Less, FirstN, or MaskFromBools instead.
type Mask[T Lanes] struct {
	tag  Tag[T]
	regs []Reg
}

// MaskFromBools creates a mask whose lane i is bits[i]. Missing lanes are
// false.
func MaskFromBools[T Lanes](d Tag[T], bits []bool) Mask[T] {
	n := d.layout.Registers()
	leaf := d.layout.leafLanes()
	eb := d.layout.Elem.Size()
	compact := d.target.CompactMasks
	regs := make([]Reg, n)
	for r := range regs {
		if compact {
			regs[r] = NewReg(compactMaskBytes)
		} else {
			regs[r] = NewReg(d.layout.RegisterBytes())
		}
	}
	for i := range min(len(bits), d.layout.Lanes) {
		if !bits[i] {
			continue
		}
		r := &regs[i/leaf]
		if compact {
			*r = r.WithLane(compactMaskBytes, 0, r.Lane(compactMaskBytes, 0)|1<<(i%leaf))
		} else {
			*r = r.WithLane(eb, i%leaf, laneMask(eb))
		}
	}
	return Mask[T]{tag: d, regs: regs}
}

// FirstN returns a mask with the first n lanes active.
func FirstN[T Lanes](d Tag[T], n int) Mask[T] {
	bits := make([]bool, d.Lanes())
	for i := range min(max(n, 0), len(bits)) {
		bits[i] = true
	}
	return MaskFromBools(d, bits)
}

// Equal returns a mask of lanes where a == b.
func Equal[T Lanes](a, b Vec[T]) Mask[T] {
	return compareLanes(a, b, func(x, y T) bool { return x == y })
}

// Less returns a mask of lanes where a < b.
func Less[T Lanes](a, b Vec[T]) Mask[T] {
	return compareLanes(a, b, func(x, y T) bool { return x < y })
}

func compareLanes[T Lanes](a, b Vec[T], f func(x, y T) bool) Mask[T] {
	x, y := a.Data(), b.Data()
	bits := make([]bool, len(x))
	for i := range x {
		bits[i] = f(x[i], y[i])
	}
	return MaskFromBools(a.tag, bits)
}

// NumLanes returns the number of lanes in this mask.
func (m Mask[T]) NumLanes() int {
	return m.tag.layout.Lanes
}

// Compact reports whether the mask holds one bit per lane.
func (m Mask[T]) Compact() bool {
	return m.tag.target.CompactMasks
}

// Registers returns a copy of the leaf mask registers.
func (m Mask[T]) Registers() []Reg {
	return append([]Reg(nil), m.regs...)
}

// GetBit returns whether lane i is active.
func (m Mask[T]) GetBit(i int) bool {
	if i < 0 || i >= m.NumLanes() {
		return false
	}
	leaf := m.tag.layout.leafLanes()
	r := m.regs[i/leaf]
	if m.Compact() {
		return r.Lane(compactMaskBytes, 0)>>(i%leaf)&1 != 0
	}
	return r.Lane(m.tag.layout.Elem.Size(), i%leaf) != 0
}

// Bools returns the lanes of the mask.
func (m Mask[T]) Bools() []bool {
	out := make([]bool, m.NumLanes())
	for i := range out {
		out[i] = m.GetBit(i)
	}
	return out
}

// AllTrue returns true if all lanes in the mask are active.
func (m Mask[T]) AllTrue() bool {
	return m.CountTrue() == m.NumLanes()
}

// AnyTrue returns true if at least one lane in the mask is active.
func (m Mask[T]) AnyTrue() bool {
	return m.CountTrue() > 0
}

// CountTrue returns the number of active lanes in the mask.
func (m Mask[T]) CountTrue() int {
	count := 0
	for i := range m.NumLanes() {
		if m.GetBit(i) {
			count++
		}
	}
	return count
}

// MaskAnd returns the lanes active in both a and b.
func MaskAnd[T Lanes](a, b Mask[T]) Mask[T] {
	return combineMasks(a, b, func(x, y bool) bool { return x && y })
}

// MaskOr returns the lanes active in a or b.
func MaskOr[T Lanes](a, b Mask[T]) Mask[T] {
	return combineMasks(a, b, func(x, y bool) bool { return x || y })
}

// MaskXor returns the lanes active in exactly one of a and b.
func MaskXor[T Lanes](a, b Mask[T]) Mask[T] {
	return combineMasks(a, b, func(x, y bool) bool { return x != y })
}

// MaskNot returns the inactive lanes of m.
func MaskNot[T Lanes](m Mask[T]) Mask[T] {
	return combineMasks(m, m, func(x, _ bool) bool { return !x })
}

func combineMasks[T Lanes](a, b Mask[T], f func(x, y bool) bool) Mask[T] {
	x, y := a.Bools(), b.Bools()
	for i := range x {
		x[i] = f(x[i], y[i])
	}
	return MaskFromBools(a.tag, x)
}

// IfThenElse returns yes in the lanes where m is active and no elsewhere.
func IfThenElse[T Lanes](m Mask[T], yes, no Vec[T]) Vec[T] {
	eb := yes.tag.layout.Elem.Size()
	regs := make([]Reg, len(yes.regs))
	for i := range regs {
		regs[i] = BlendVar(no.regs[i], yes.regs[i], m.regs[i], eb, m.Compact())
	}
	return Vec[T]{tag: yes.tag, regs: regs}
}

// IfThenElseZero returns yes in the lanes where m is active and zero
// elsewhere.
func IfThenElseZero[T Lanes](m Mask[T], yes Vec[T]) Vec[T] {
	eb := yes.tag.layout.Elem.Size()
	regs := make([]Reg, len(yes.regs))
	for i := range regs {
		if m.Compact() {
			regs[i] = ZeroMasked(yes.regs[i], m.regs[i], eb)
		} else {
			regs[i] = m.regs[i].And(yes.regs[i])
		}
	}
	return Vec[T]{tag: yes.tag, regs: regs}
}
