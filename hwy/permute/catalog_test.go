package permute

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

// sourceRegs returns the registers of c with lane i of source s holding
// s*n+i+1, so every lane of every source is distinct and nonzero.
func sourceRegs(c lowering, sources int) []hwy.Reg {
	n := c.lanes()
	return lo.Times(sources, func(s int) hwy.Reg {
		r := hwy.NewReg(c.size)
		for i := range n {
			r = r.WithLane(c.elem, i, uint64(s*n+i+1))
		}
		return r
	})
}

// runStrategies emits p with every strategy of catalog that claims it, each
// into a fresh builder, and checks the result against want evaluated over
// in directly.
func runStrategies[P fmt.Stringer](t *testing.T, c lowering, family Family, catalog []Strategy[P],
	in []hwy.Reg, p P, want pattern.Shuffle, applied map[string]bool) {
	t.Helper()
	n := c.lanes()
	sizes := lo.Map(in, func(r hwy.Reg, _ int) int { return r.Size() })
	for _, s := range catalog {
		if !s.applies(c, p) {
			continue
		}
		applied[string(family)+":"+s.Name] = true
		label := fmt.Sprintf("%v %s:%s %v", c, family, s.Name, p)

		b := newBuilder(c.target, sizes)
		var out Value
		require.NotPanics(t, func() { out = s.emit(b, c, b.inputValues(), p) }, label)
		require.NoError(t, b.err, label)
		prog := b.finish([]Value{out})
		got := prog.Run(in)[0]
		require.Equal(t, c.size, got.Size(), label)

		for i, d := range want {
			var lane uint64
			switch d {
			case pattern.Any:
				continue
			case pattern.Zero:
			default:
				lane = in[d/n].Lane(c.elem, d%n)
			}
			require.Equal(t, lane, got.Lane(c.elem, i), "%s lane %d\n%v", label, i, prog)
		}
	}
}

// Every strategy that claims a pattern realizes it, whether or not it is
// the one the selector would pick.
func TestEveryStrategyMatchesReference(t *testing.T) {
	rounds := 20
	if testing.Short() {
		rounds = 4
	}
	applied := map[string]bool{}
	for _, level := range hwy.Levels() {
		target := hwy.MustTarget(level)
		rng := rand.New(rand.NewPCG(uint64(level), 99))
		for _, size := range target.RegisterBytes {
			for _, elem := range []int{1, 2, 4, 8} {
				if elem > size {
					continue
				}
				c := lowering{target: target, elem: elem, size: size}
				n := c.lanes()
				t.Run(fmt.Sprintf("%s/%dB/e%d", level, size, elem), func(t *testing.T) {
					one, two := sourceRegs(c, 1), sourceRegs(c, 2)

					shuffles := append(structuredShuffles(n), lo.Times(n, func(int) int { return pattern.Zero }))
					for range rounds {
						shuffles = append(shuffles, randomShuffle(rng, n, 1))
					}
					for _, p := range shuffles {
						runStrategies(t, c, FamilyShuffle, shuffleCatalog, one, p, p, applied)
					}

					var pairs []pattern.Shuffle
					for _, p := range structuredPairs(n) {
						pairs = append(pairs, p, swapSources(p, n))
					}
					for range rounds {
						pairs = append(pairs, randomShuffle(rng, n, 2))
					}
					for _, p := range pairs {
						runStrategies(t, c, FamilyPair, pairCatalog, two, p, p, applied)
					}

					blends := []pattern.Blend{
						make(pattern.Blend, n),
						lo.Times(n, func(int) pattern.Side { return pattern.Right }),
						pattern.OddEven(n),
					}
					for range rounds {
						blends = append(blends, randomBlend(rng, n))
					}
					for _, p := range blends {
						runStrategies(t, c, FamilyBlend, blendCatalog, two, p, p.Shuffle(), applied)
					}

					zeroBlends := []pattern.ZeroBlend{
						pattern.KeepAll(n),
						pattern.FirstN(n, 0),
						pattern.FirstN(n, n/2),
					}
					for range rounds {
						zeroBlends = append(zeroBlends, randomZeroBlend(rng, n))
					}
					for _, p := range zeroBlends {
						runStrategies(t, c, FamilyZeroBlend, zeroBlendCatalog, one, p, p.Shuffle(), applied)
					}
				})
			}
		}
	}

	for _, f := range []Family{FamilyShuffle, FamilyPair, FamilyBlend, FamilyZeroBlend} {
		for _, name := range Catalog(f) {
			require.True(t, applied[string(f)+":"+name], "strategy %s:%s never applied", f, name)
		}
	}
}
