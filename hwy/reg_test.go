package hwy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func iotaReg(size int, start byte) Reg {
	b := make([]byte, size)
	for i := range b {
		b[i] = start + byte(i)
	}
	return RegFromBytes(b)
}

func TestRegLanes(t *testing.T) {
	r := iotaReg(16, 0)
	require.Equal(t, uint64(0x0706050403020100), r.Lane(8, 0))
	require.Equal(t, uint64(0x0b0a), r.Lane(2, 5))

	w := r.WithLane(4, 1, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), w.Lane(4, 1))
	require.Equal(t, uint64(0x07060504), r.Lane(4, 1), "WithLane must not modify the receiver")

	require.Equal(t, uint64(0x0302), NewReg(16).CopyLane(r, 2, 7, 1).Lane(2, 7))
}

func TestRegTableBytes(t *testing.T) {
	r := iotaReg(32, 0)
	idx := make([]byte, 32)
	for k := range idx {
		idx[k] = byte(15 - k%16)
	}
	idx[3] = 0x80
	out := r.TableBytes(idx).Bytes()
	require.Equal(t, byte(15), out[0])
	require.Equal(t, byte(0), out[3], "0x80 selects zero")
	require.Equal(t, byte(31), out[16], "lookups stay within their block")
}

func TestRegShuffle32(t *testing.T) {
	r := iotaReg(32, 0)
	out := r.Shuffle32(0x1b) // 3,2,1,0
	require.Equal(t, r.Lane(4, 3), out.Lane(4, 0))
	require.Equal(t, r.Lane(4, 0), out.Lane(4, 3))
	require.Equal(t, r.Lane(4, 7), out.Lane(4, 4))
}

func TestRegPermute(t *testing.T) {
	a, b := iotaReg(16, 0), iotaReg(16, 100)
	p := a.PermuteLanes(4, []int{3, 3, 0, 1})
	require.Equal(t, a.Lane(4, 3), p.Lane(4, 1))
	require.Equal(t, a.Lane(4, 1), p.Lane(4, 3))

	q := Permute2(a, b, 8, []int{3, 0})
	require.Equal(t, b.Lane(8, 1), q.Lane(8, 0))
	require.Equal(t, a.Lane(8, 0), q.Lane(8, 1))
}

func TestRegBlend(t *testing.T) {
	a, b := iotaReg(16, 0), iotaReg(16, 100)
	out := Blend(a, b, 4, 0b0101)
	require.Equal(t, b.Lane(4, 0), out.Lane(4, 0))
	require.Equal(t, a.Lane(4, 1), out.Lane(4, 1))
	require.Equal(t, b.Lane(4, 2), out.Lane(4, 2))

	compact := NewReg(8).WithLane(8, 0, 0b0101)
	require.Equal(t, out, BlendVar(a, b, compact, 4, true))

	broad := NewReg(16).WithLane(4, 0, 0xffffffff).WithLane(4, 2, 0xffffffff)
	require.Equal(t, out, BlendVar(a, b, broad, 4, false))

	z := ZeroMasked(a, NewReg(8).WithLane(8, 0, 0b10), 8)
	require.Equal(t, uint64(0), z.Lane(8, 0))
	require.Equal(t, a.Lane(8, 1), z.Lane(8, 1))
}

func TestRegByteShifts(t *testing.T) {
	lo, hi := iotaReg(16, 0), iotaReg(16, 16)
	require.Equal(t, byte(3), AlignBytes(hi, lo, 3).Bytes()[0])
	require.Equal(t, byte(16), AlignBytes(hi, lo, 3).Bytes()[13])
	require.Equal(t, hi, AlignBytes(hi, lo, 16))
	require.Equal(t, NewReg(16), AlignBytes(hi, lo, 32))

	up := lo.ShiftBytesUp(2).Bytes()
	require.Equal(t, []byte{0, 0, 0, 1}, up[:4])
	down := lo.ShiftBytesDown(15).Bytes()
	require.Equal(t, byte(15), down[0])
	require.Equal(t, byte(0), down[1])
}

func TestRegBlocks(t *testing.T) {
	r := iotaReg(64, 0)
	p := r.BlockPermute([]int{3, -1, 0, 0})
	require.Equal(t, byte(48), p.Bytes()[0])
	require.Equal(t, byte(0), p.Bytes()[16])
	require.Equal(t, byte(0), p.Bytes()[32])
	require.Equal(t, byte(0), p.Bytes()[48])

	a, b := iotaReg(32, 0), iotaReg(32, 100)
	lo := InterleaveLower(a, b, 4)
	require.Equal(t, []uint64{a.Lane(4, 0), b.Lane(4, 0), a.Lane(4, 1), b.Lane(4, 1)},
		[]uint64{lo.Lane(4, 0), lo.Lane(4, 1), lo.Lane(4, 2), lo.Lane(4, 3)})
	require.Equal(t, a.Lane(4, 4), lo.Lane(4, 4), "interleave works per block")
	hi := InterleaveUpper(a, b, 4)
	require.Equal(t, a.Lane(4, 2), hi.Lane(4, 0))
	require.Equal(t, b.Lane(4, 7), hi.Lane(4, 7))

	c := Combine(a, b)
	require.Equal(t, 64, c.Size())
	require.Equal(t, a, c.LowerHalf())
	require.Equal(t, b, c.UpperHalf())
}

func TestRegBitwise(t *testing.T) {
	a := RegFromBytes([]byte{0b1100, 0xff})
	b := RegFromBytes([]byte{0b1010, 0x0f})
	require.Equal(t, []byte{0b1000, 0x0f}, a.And(b).Bytes())
	require.Equal(t, []byte{0b1110, 0xff}, a.Or(b).Bytes())
	require.Equal(t, []byte{0b0110, 0xf0}, a.Xor(b).Bytes())
	require.Equal(t, []byte{0b0010, 0x00}, a.AndNot(b).Bytes())
}
