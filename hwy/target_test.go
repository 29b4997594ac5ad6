package hwy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNativeWidths(t *testing.T) {
	tests := []struct {
		level DispatchLevel
		elem  ElementType
		want  []int
	}{
		{DispatchScalar, Float32, []int{4}},
		{DispatchSSE4, Uint8, []int{16}},
		{DispatchAVX2, Int32, []int{4, 8}},
		{DispatchAVX512, Float64, []int{2, 4, 8}},
		{DispatchNEON, Int16, []int{4, 8}},
		{DispatchNEON, Uint64, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.level.String()+"/"+tt.elem.String(), func(t *testing.T) {
			got, err := MustTarget(tt.level).NativeWidths(tt.elem)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTargetRegisters(t *testing.T) {
	for _, level := range Levels() {
		target := MustTarget(level)
		require.Equal(t, level, target.Level)
		sizes := target.RegisterBytes
		require.NotEmpty(t, sizes, level)
		for i := 1; i < len(sizes); i++ {
			require.Equal(t, 2*sizes[i-1], sizes[i], "%s register sizes must double", level)
		}
		// Every level can always fall back to lane moves.
		for _, size := range sizes {
			require.True(t, target.Supports(OpCopyLane, 4, size), level)
			require.True(t, target.Supports(OpConst, 1, size), level)
		}
	}
	require.True(t, MustTarget(DispatchAVX512).CompactMasks)
	require.False(t, MustTarget(DispatchAVX2).CompactMasks)

	_, err := TargetFor(DispatchLevel(99))
	require.Error(t, err)
}

func TestSupports(t *testing.T) {
	sse2 := MustTarget(DispatchSSE2)
	sse4 := MustTarget(DispatchSSE4)
	avx2 := MustTarget(DispatchAVX2)
	avx512 := MustTarget(DispatchAVX512)
	neon := MustTarget(DispatchNEON)

	tests := []struct {
		name   string
		target Target
		op     Op
		elem   int
		reg    int
		want   bool
	}{
		{"pshufb needs ssse3", sse2, OpTableBytes, 1, 16, false},
		{"pshufb", sse4, OpTableBytes, 1, 16, true},
		{"pblendw has no bytes", sse4, OpBlend, 1, 16, false},
		{"vpermd", avx2, OpPermuteLanes, 4, 32, true},
		{"no vpermw on avx2", avx2, OpPermuteLanes, 2, 32, false},
		{"vpermw", avx512, OpPermuteLanes, 2, 64, true},
		{"no 512-bit on avx2", avx2, OpShuffle32, 4, 64, false},
		{"combine into 256", avx2, OpCombine, 1, 16, true},
		{"combine beyond widest", avx2, OpCombine, 1, 32, false},
		{"lower half of 128 on avx2", avx2, OpLowerHalf, 1, 16, false},
		{"neon combine", neon, OpCombine, 4, 8, true},
		{"neon tbl2", neon, OpPermute2, 1, 16, true},
		{"no shuffle32 on neon", neon, OpShuffle32, 4, 16, false},
		{"masked zero", avx512, OpZeroMasked, 8, 16, true},
		{"no masked zero on avx2", avx2, OpZeroMasked, 4, 32, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.target.Supports(tt.op, tt.elem, tt.reg))
		})
	}
}

func TestCostOrdering(t *testing.T) {
	cheap := Cost{Throughput: 1, Latency: 3}
	require.True(t, cheap.Less(Cost{Throughput: 2, Latency: 1}), "throughput decides first")
	require.True(t, Cost{1, 1}.Less(cheap), "latency breaks throughput ties")
	require.False(t, cheap.Less(cheap))
	require.Equal(t, Cost{3, 4}, cheap.Add(Cost{2, 1}))
	require.True(t, Cost{}.IsZero())
	require.Equal(t, "(tp=1, lat=3)", cheap.String())

	avx2 := MustTarget(DispatchAVX2)
	require.Equal(t, Cost{1, 3}, avx2.Cost(OpPermuteLanes, 4, 32))
	require.Equal(t, Cost{}, avx2.Cost(OpPermute2, 4, 32))
}
