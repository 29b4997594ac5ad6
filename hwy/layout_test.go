package hwy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	avx2 := MustTarget(DispatchAVX2)
	neon := MustTarget(DispatchNEON)

	tests := []struct {
		name      string
		target    Target
		elem      ElementType
		lanes     int
		regLanes  int
		registers int
		depth     int
		str       string
	}{
		{"native 128", avx2, Int32, 4, 4, 1, 0, "int32x4"},
		{"native 256", avx2, Int32, 8, 8, 1, 0, "int32x8"},
		{"sub-native", avx2, Int32, 2, 4, 1, 0, "int32x2(in 4)"},
		{"single lane", avx2, Float64, 1, 2, 1, 0, "float64x1(in 2)"},
		{"super-native", avx2, Int32, 16, 8, 2, 1, "int32x16(2xint32x8)"},
		{"super-native twice", avx2, Uint8, 128, 32, 4, 2, "uint8x128(2xuint8x64(2xuint8x32))"},
		{"neon 64-bit", neon, Uint16, 4, 4, 1, 0, "uint16x4"},
		{"neon sub-native", neon, Uint8, 2, 8, 1, 0, "uint8x2(in 8)"},
		{"neon single 64-bit lane", neon, Int64, 1, 1, 1, 0, "int64x1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Resolve(tt.target, tt.elem, tt.lanes)
			require.NoError(t, err)
			require.Equal(t, tt.regLanes, l.RegisterLanes())
			require.Equal(t, tt.registers, l.Registers())
			require.Equal(t, tt.depth, l.Depth())
			require.Equal(t, tt.depth == 0, l.IsLeaf())
			require.Equal(t, tt.str, l.String())
			require.Equal(t, tt.regLanes*tt.elem.Size(), l.RegisterBytes())
		})
	}
}

func TestResolveHalves(t *testing.T) {
	l, err := Resolve(MustTarget(DispatchSSE4), Int16, 32)
	require.NoError(t, err)
	half, ok := l.Halves()
	require.True(t, ok)
	require.Equal(t, 16, half.Lanes)
	quarter, ok := half.Halves()
	require.True(t, ok)
	require.IsType(t, Native{}, quarter.Shape)
	_, ok = quarter.Halves()
	require.False(t, ok)
}

func TestResolveErrors(t *testing.T) {
	avx2 := MustTarget(DispatchAVX2)
	for _, n := range []int{0, -4, 3, 12} {
		_, err := Resolve(avx2, Int32, n)
		require.ErrorIs(t, err, ErrLaneCount, "lanes=%d", n)
	}
	_, err := Resolve(avx2, ElementType(0), 4)
	require.ErrorIs(t, err, ErrUnsupportedElement)
}
