package hwy

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// This file models native registers and the primitive instructions the
// permute package composes. Semantics follow the hardware: "block" ops act
// independently on each 16-byte block (or on the whole register when it
// is smaller), the way PSHUFB, PALIGNR and PUNPCKL do on AVX2.

// MaxRegisterBytes is the size of the widest register of any target.
const MaxRegisterBytes = 64

// blockBytes is the size of the unit within which block ops act.
const blockBytes = 16

// Reg is one native register. It is a value: copies never alias.
type Reg struct {
	b    [MaxRegisterBytes]byte
	size uint8
}

// NewReg returns a zeroed register of size bytes.
func NewReg(size int) Reg {
	return Reg{size: uint8(size)}
}

// RegFromBytes returns a register holding a copy of b.
func RegFromBytes(b []byte) Reg {
	r := Reg{size: uint8(len(b))}
	copy(r.b[:], b)
	return r
}

// Size returns the register size in bytes.
func (r Reg) Size() int {
	return int(r.size)
}

// Bytes returns a copy of the register contents.
func (r Reg) Bytes() []byte {
	out := make([]byte, r.size)
	copy(out, r.b[:r.size])
	return out
}

// Lane returns lane i of a register viewed as lanes of elemBytes.
func (r Reg) Lane(elemBytes, i int) uint64 {
	var buf [8]byte
	copy(buf[:], r.b[i*elemBytes:(i+1)*elemBytes])
	return binary.LittleEndian.Uint64(buf[:])
}

// WithLane returns r with lane i replaced by the low elemBytes of v.
func (r Reg) WithLane(elemBytes, i int, v uint64) Reg {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	copy(r.b[i*elemBytes:(i+1)*elemBytes], buf[:elemBytes])
	return r
}

func (r Reg) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range int(r.size) {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", r.b[i])
	}
	sb.WriteByte(']')
	return sb.String()
}

func (r Reg) block() int {
	return min(blockBytes, int(r.size))
}

// And returns r & o.
func (r Reg) And(o Reg) Reg {
	for i := range int(r.size) {
		r.b[i] &= o.b[i]
	}
	return r
}

// Or returns r | o.
func (r Reg) Or(o Reg) Reg {
	for i := range int(r.size) {
		r.b[i] |= o.b[i]
	}
	return r
}

// Xor returns r ^ o.
func (r Reg) Xor(o Reg) Reg {
	for i := range int(r.size) {
		r.b[i] ^= o.b[i]
	}
	return r
}

// AndNot returns ^r & o, the operand order of x86 PANDN.
func (r Reg) AndNot(o Reg) Reg {
	for i := range int(r.size) {
		r.b[i] = ^r.b[i] & o.b[i]
	}
	return r
}

// CopyLane returns r with lane dst replaced by lane src of o.
func (r Reg) CopyLane(o Reg, elemBytes, dst, src int) Reg {
	return r.WithLane(elemBytes, dst, o.Lane(elemBytes, src))
}

// TableBytes looks up each byte of idx in the same block of r. Indices at
// or beyond the block size (including the 0x80 PSHUFB zero flag) yield 0.
func (r Reg) TableBytes(idx []byte) Reg {
	out := NewReg(int(r.size))
	bs := r.block()
	for k := range int(r.size) {
		if x := int(idx[k]); x < bs {
			out.b[k] = r.b[k/bs*bs+x]
		}
	}
	return out
}

// Shuffle32 permutes the four 32-bit lanes of each block; lane j takes
// lane (imm >> 2j) & 3.
func (r Reg) Shuffle32(imm uint8) Reg {
	out := NewReg(int(r.size))
	for base := 0; base < int(r.size); base += blockBytes {
		for j := range 4 {
			sel := int(imm>>(2*j)) & 3
			copy(out.b[base+4*j:base+4*j+4], r.b[base+4*sel:base+4*sel+4])
		}
	}
	return out
}

// PermuteLanes returns a register whose lane i is lane idx[i] of r.
func (r Reg) PermuteLanes(elemBytes int, idx []int) Reg {
	out := NewReg(int(r.size))
	for i, j := range idx {
		out = out.CopyLane(r, elemBytes, i, j)
	}
	return out
}

// Permute2 returns a register whose lane i is lane idx[i] of the
// concatenation of a and b.
func Permute2(a, b Reg, elemBytes int, idx []int) Reg {
	n := a.Size() / elemBytes
	out := NewReg(a.Size())
	for i, j := range idx {
		if j < n {
			out = out.CopyLane(a, elemBytes, i, j)
		} else {
			out = out.CopyLane(b, elemBytes, i, j-n)
		}
	}
	return out
}

// Blend returns a with the lanes whose bit is set in bits taken from b.
func Blend(a, b Reg, elemBytes int, bits uint64) Reg {
	out := a
	for i := range a.Size() / elemBytes {
		if bits>>i&1 != 0 {
			out = out.CopyLane(b, elemBytes, i, i)
		}
	}
	return out
}

// BlendVar returns a with the lanes selected by mask m taken from b. A
// compact mask holds one bit per lane in its low bytes; a broad mask is
// applied bitwise.
func BlendVar(a, b, m Reg, elemBytes int, compact bool) Reg {
	if compact {
		return Blend(a, b, elemBytes, m.Lane(8, 0))
	}
	return m.AndNot(a).Or(m.And(b))
}

// ZeroMasked clears the lanes of r whose bit in compact mask m is clear.
func ZeroMasked(r, m Reg, elemBytes int) Reg {
	return Blend(NewReg(r.Size()), r, elemBytes, m.Lane(8, 0))
}

// AlignBytes concatenates each block of lo (low) and hi (high) and returns
// the window starting shift bytes in.
func AlignBytes(hi, lo Reg, shift int) Reg {
	out := NewReg(lo.Size())
	bs := lo.block()
	for k := range lo.Size() {
		base, j := k/bs*bs, k%bs+shift
		switch {
		case j < bs:
			out.b[k] = lo.b[base+j]
		case j < 2*bs:
			out.b[k] = hi.b[base+j-bs]
		}
	}
	return out
}

// ShiftBytesUp moves bytes s positions toward higher indices within each
// block, shifting in zeros.
func (r Reg) ShiftBytesUp(s int) Reg {
	out := NewReg(int(r.size))
	bs := r.block()
	for k := range int(r.size) {
		if k%bs >= s {
			out.b[k] = r.b[k-s]
		}
	}
	return out
}

// ShiftBytesDown moves bytes s positions toward lower indices within each
// block, shifting in zeros.
func (r Reg) ShiftBytesDown(s int) Reg {
	out := NewReg(int(r.size))
	bs := r.block()
	for k := range int(r.size) {
		if k%bs+s < bs {
			out.b[k] = r.b[k+s]
		}
	}
	return out
}

// BlockPermute returns a register whose block i is block sel[i] of r, or
// zero when sel[i] is negative.
func (r Reg) BlockPermute(sel []int) Reg {
	out := NewReg(int(r.size))
	for i, s := range sel {
		if s >= 0 {
			copy(out.b[i*blockBytes:(i+1)*blockBytes], r.b[s*blockBytes:(s+1)*blockBytes])
		}
	}
	return out
}

// InterleaveLower interleaves the lower halves of each block of a and b:
// [a0 b0 a1 b1 ...].
func InterleaveLower(a, b Reg, elemBytes int) Reg {
	return interleave(a, b, elemBytes, 0)
}

// InterleaveUpper interleaves the upper halves of each block of a and b.
func InterleaveUpper(a, b Reg, elemBytes int) Reg {
	return interleave(a, b, elemBytes, 1)
}

func interleave(a, b Reg, elemBytes, half int) Reg {
	out := NewReg(a.Size())
	bl := a.block() / elemBytes
	for base := 0; base < a.Size()/elemBytes; base += bl {
		for j := range bl / 2 {
			src := base + half*bl/2 + j
			out = out.CopyLane(a, elemBytes, base+2*j, src)
			out = out.CopyLane(b, elemBytes, base+2*j+1, src)
		}
	}
	return out
}

// Combine returns the register of twice the size holding lo then hi.
func Combine(lo, hi Reg) Reg {
	out := NewReg(2 * lo.Size())
	copy(out.b[:lo.size], lo.b[:lo.size])
	copy(out.b[lo.size:], hi.b[:hi.size])
	return out
}

// LowerHalf returns the lower half of r.
func (r Reg) LowerHalf() Reg {
	return RegFromBytes(r.b[:r.size/2])
}

// UpperHalf returns the upper half of r.
func (r Reg) UpperHalf() Reg {
	return RegFromBytes(r.b[r.size/2 : r.size])
}
