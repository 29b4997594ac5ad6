package permute

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/KurtBoehm/grex-sub000/hwy"
)

// chainProgram builds, on SSE2, a Shuffle32 feeding an InterleaveLower and
// an independent Zero merged at the end.
func chainProgram(t *testing.T) *Program {
	t.Helper()
	b := newBuilder(sse2, []int{16, 16})
	x := b.shuffle32(0, 0x1b)
	y := b.interleave(hwy.OpInterleaveLower, x, 1, 4)
	z := b.zero(16)
	w := b.bitwise(hwy.OpOr, y, z)
	require.NoError(t, b.err)
	return b.finish([]Value{w})
}

func TestProgramCost(t *testing.T) {
	p := chainProgram(t)
	// Four single-cycle ops; the Zero runs alongside the first two.
	require.Equal(t, hwy.Cost{Throughput: 4, Latency: 3}, p.Cost())
	require.Equal(t, []Value{5}, p.Outputs())
	require.Equal(t, []int{16, 16}, p.Inputs())
	require.Len(t, p.Steps(), 4)
}

func TestProgramRun(t *testing.T) {
	d := hwy.MustTag[uint32](sse2, 4)
	a, b := d.Iota(0), d.Iota(10)
	out := chainProgram(t).Run(append(a.Registers(), b.Registers()...))
	got := hwy.FromRegisters(d, out).Data()
	require.Equal(t, []uint32{3, 10, 2, 11}, got)
}

func TestProgramString(t *testing.T) {
	s := chainProgram(t).String()
	require.Contains(t, s, "v2 = Shuffle32 v0 0x1b")
	require.Contains(t, s, "v3 = InterleaveLower v2, v1 e4")
	require.Contains(t, s, "v4 = Zero 16B")
	require.Contains(t, s, "outputs [v5] cost (tp=4, lat=3)")
}

func TestProgramRunConcurrently(t *testing.T) {
	d := hwy.MustTag[int16](avx2, 32)
	plan := Reverse(d)
	want := make([]int16, 32)
	for i := range want {
		want[i] = int16(31 - i)
	}

	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			for range 50 {
				got := plan.Apply(d.Iota(0)).Data()
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("lane %d = %d, want %d", i, got[i], want[i])
						return nil
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestEmitPanicsOnUnsupportedOp(t *testing.T) {
	b := newBuilder(scalar, []int{16})
	require.Panics(t, func() { b.shuffle32(0, 0) })
}
