// Package pattern describes static per-lane patterns: which source lane,
// zero, or don't-care each output lane of a permutation receives.
//
// Patterns are plain values analyzed while a lowering is being chosen;
// they never reach the code that moves data. Three flavors exist, one per
// operation family: Shuffle (permutation of one or more sources), Blend
// (two-source selection) and ZeroBlend (keep or zero each lane).
//
// A don't-care lane may receive any value. Nothing may depend on it.
package pattern

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Special Shuffle descriptors. Non-negative descriptors are source lane
// indices.
const (
	// Any marks a don't-care lane.
	Any = -1
	// Zero marks a lane that must be zero.
	Zero = -2
)

var (
	// ErrIndexRange is returned for a source index outside the sources.
	ErrIndexRange = errors.New("pattern: source index out of range")
	// ErrSyntax is returned by Parse for malformed text.
	ErrSyntax = errors.New("pattern: syntax error")
)

// Shuffle gives, for each output lane, a source lane index, Zero or Any.
// With several sources of n lanes each, index j addresses lane j%n of
// source j/n.
type Shuffle []int

// Identity returns the pattern copying lane i to lane i.
func Identity(n int) Shuffle {
	return lo.Times(n, func(i int) int { return i })
}

// Validate checks that every index addresses one of sources inputs of
// len(p) lanes.
func (p Shuffle) Validate(sources int) error {
	limit := sources * len(p)
	for i, d := range p {
		if d == Any || d == Zero {
			continue
		}
		if d < 0 || d >= limit {
			return fmt.Errorf("%w: lane %d reads %d, have %d source lanes", ErrIndexRange, i, d, limit)
		}
	}
	return nil
}

// IsIdentity reports whether every lane is either its own index or Any.
func (p Shuffle) IsIdentity() bool {
	for i, d := range p {
		if d != i && d != Any {
			return false
		}
	}
	return true
}

// RequiresZeroing reports whether at least one lane must be zero.
func (p Shuffle) RequiresZeroing() bool {
	return slices.Contains(p, Zero)
}

// HasIndex reports whether any lane reads a source.
func (p Shuffle) HasIndex() bool {
	return lo.SomeBy(p, func(d int) bool { return d >= 0 })
}

// Lower returns the first half of p.
func (p Shuffle) Lower() Shuffle {
	return slices.Clone(p[:len(p)/2])
}

// Upper returns the second half of p.
func (p Shuffle) Upper() Shuffle {
	return slices.Clone(p[len(p)/2:])
}

// Pad extends p to n lanes with Any.
func (p Shuffle) Pad(n int) Shuffle {
	out := slices.Clone(p)
	for len(out) < n {
		out = append(out, Any)
	}
	return out
}

// Remap returns p with every index j replaced by f(j).
func (p Shuffle) Remap(f func(j int) int) Shuffle {
	return lo.Map(p, func(d int, _ int) int {
		if d < 0 {
			return d
		}
		return f(d)
	})
}

// ReplaceZeros returns p with every Zero replaced by d.
func (p Shuffle) ReplaceZeros(d int) Shuffle {
	return lo.Map(p, func(x int, _ int) int {
		if x == Zero {
			return d
		}
		return x
	})
}

// Sources returns, in increasing order, the sources of lanes lanes each
// that p reads.
func (p Shuffle) Sources(lanes int) []int {
	srcs := lo.Uniq(lo.FilterMap(p, func(d int, _ int) (int, bool) {
		return d / max(lanes, 1), d >= 0
	}))
	slices.Sort(srcs)
	return srcs
}

// ConfinedTo keeps the lanes of p that read source src (re-indexed to
// that source alone) and Zero lanes, and replaces lanes reading any other
// source by fallback.
func (p Shuffle) ConfinedTo(src, lanes, fallback int) Shuffle {
	return lo.Map(p, func(d int, _ int) int {
		switch {
		case d < 0:
			return d
		case d/lanes == src:
			return d % lanes
		default:
			return fallback
		}
	})
}

// AsSingleLane folds p onto one block of blockLanes lanes. It succeeds
// when every lane reads from its own block and all blocks agree on the
// local index at each position. Zero and Any are wildcards: a position
// that only ever holds Zero folds to Zero, so zeroing must still be
// applied from the full pattern.
func (p Shuffle) AsSingleLane(blockLanes int) (Shuffle, bool) {
	if blockLanes <= 0 || len(p)%blockLanes != 0 {
		return nil, false
	}
	out := Shuffle(lo.Times(blockLanes, func(int) int { return Any }))
	for i, d := range p {
		pos := i % blockLanes
		switch {
		case d == Any:
		case d == Zero:
			if out[pos] == Any {
				out[pos] = Zero
			}
		case d/blockLanes != i/blockLanes:
			return nil, false
		case out[pos] < 0:
			out[pos] = d % blockLanes
		case out[pos] != d%blockLanes:
			return nil, false
		}
	}
	return out, true
}

// Reinterpret expresses p, defined for lanes of fromBytes, as the
// equivalent pattern for lanes of toBytes. Splitting into narrower lanes
// always succeeds. Merging requires each group of lanes to be all
// don't-care, all zero, or an aligned contiguous run of one wider lane.
func (p Shuffle) Reinterpret(fromBytes, toBytes int) (Shuffle, bool) {
	switch {
	case fromBytes == toBytes:
		return slices.Clone(p), true
	case toBytes < fromBytes:
		r := fromBytes / toBytes
		out := make(Shuffle, 0, len(p)*r)
		for _, d := range p {
			for s := range r {
				if d < 0 {
					out = append(out, d)
				} else {
					out = append(out, d*r+s)
				}
			}
		}
		return out, true
	}
	r := toBytes / fromBytes
	if len(p)%r != 0 {
		return nil, false
	}
	out := make(Shuffle, 0, len(p)/r)
	for _, group := range lo.Chunk(p, r) {
		merged, ok := mergeGroup(group)
		if !ok {
			return nil, false
		}
		out = append(out, merged)
	}
	return out, true
}

func mergeGroup(group []int) (int, bool) {
	r := len(group)
	merged := Any
	for s, d := range group {
		switch {
		case d == Any:
		case d == Zero:
			if merged >= 0 {
				return 0, false
			}
			merged = Zero
		case merged == Zero || d%r != s:
			return 0, false
		case merged == Any:
			merged = d / r
		case merged != d/r:
			return 0, false
		}
	}
	return merged, true
}

// Offset reports whether every index lane i reads i+k for one k, and
// returns k. Zero and Any lanes are ignored; at least one lane must read
// a source.
func (p Shuffle) Offset() (int, bool) {
	k, found := 0, false
	for i, d := range p {
		if d < 0 {
			continue
		}
		if !found {
			k, found = d-i, true
		} else if d-i != k {
			return 0, false
		}
	}
	return k, found
}

// Rotation reports whether p rotates its n lanes down by k, lane i
// reading lane (i+k) mod n, with no Zero lanes.
func (p Shuffle) Rotation() (int, bool) {
	n := len(p)
	k, found := 0, false
	for i, d := range p {
		switch {
		case d == Zero || d >= n:
			return 0, false
		case d == Any:
		case !found:
			k, found = ((d-i)%n+n)%n, true
		case ((d-i)%n+n)%n != k:
			return 0, false
		}
	}
	return k, found
}

// ZeroBlend returns the zeroing part of p: Zero lanes clear, index lanes
// keep, Any lanes don't care.
func (p Shuffle) ZeroBlend() ZeroBlend {
	return lo.Map(p, func(d int, _ int) Keep {
		switch d {
		case Zero:
			return ClearLane
		case Any:
			return DontCare
		default:
			return KeepLane
		}
	})
}

// Matches reports whether q is a valid realization of p: every lane p
// constrains has the same descriptor in q.
func (p Shuffle) Matches(q Shuffle) bool {
	if len(p) != len(q) {
		return false
	}
	for i, d := range p {
		if d != Any && q[i] != d {
			return false
		}
	}
	return true
}

// String formats p as comma-separated descriptors, "z" for Zero and "_"
// for Any.
func (p Shuffle) String() string {
	parts := lo.Map(p, func(d int, _ int) string {
		switch d {
		case Zero:
			return "z"
		case Any:
			return "_"
		default:
			return strconv.Itoa(d)
		}
	})
	return "[" + strings.Join(parts, ",") + "]"
}

// Parse reads the text form produced by String; brackets and spaces are
// optional.
func Parse(s string) (Shuffle, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrSyntax)
	}
	var p Shuffle
	for _, tok := range strings.Split(s, ",") {
		switch tok = strings.TrimSpace(tok); tok {
		case "z", "Z":
			p = append(p, Zero)
		case "_", "x", "*":
			p = append(p, Any)
		default:
			d, err := strconv.Atoi(tok)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("%w: bad descriptor %q", ErrSyntax, tok)
			}
			p = append(p, d)
		}
	}
	return p, nil
}
