package pattern

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Side selects which of two inputs a Blend lane takes.
type Side int8

const (
	// Either marks a don't-care lane.
	Either Side = iota - 1
	Left
	Right
)

// Blend gives, for each output lane, the input it is taken from. The lane
// index never changes.
type Blend []Side

// IsAll reports whether every lane is s or Either.
func (p Blend) IsAll(s Side) bool {
	return lo.EveryBy(p, func(d Side) bool { return d == s || d == Either })
}

// Lower returns the first half of p.
func (p Blend) Lower() Blend {
	return slices.Clone(p[:len(p)/2])
}

// Upper returns the second half of p.
func (p Blend) Upper() Blend {
	return slices.Clone(p[len(p)/2:])
}

// Pad extends p to n lanes with Either.
func (p Blend) Pad(n int) Blend {
	out := slices.Clone(p)
	for len(out) < n {
		out = append(out, Either)
	}
	return out
}

// Bits returns a bitmask with bit i set where lane i takes Right.
// Either lanes take Left.
func (p Blend) Bits() uint64 {
	var bits uint64
	for i, d := range p {
		if d == Right {
			bits |= 1 << i
		}
	}
	return bits
}

// Flip swaps Left and Right.
func (p Blend) Flip() Blend {
	return lo.Map(p, func(d Side, _ int) Side {
		switch d {
		case Left:
			return Right
		case Right:
			return Left
		default:
			return Either
		}
	})
}

// Shuffle returns p as a two-source Shuffle over inputs of len(p) lanes.
func (p Blend) Shuffle() Shuffle {
	n := len(p)
	return lo.Map(p, func(d Side, i int) int {
		switch d {
		case Left:
			return i
		case Right:
			return n + i
		default:
			return Any
		}
	})
}

// AsSingleLane folds p onto one block of blockLanes lanes; all blocks must
// agree at each position, with Either as a wildcard.
func (p Blend) AsSingleLane(blockLanes int) (Blend, bool) {
	if blockLanes <= 0 || len(p)%blockLanes != 0 {
		return nil, false
	}
	out := Blend(lo.Times(blockLanes, func(int) Side { return Either }))
	for i, d := range p {
		merged, ok := mergeSide(out[i%blockLanes], d)
		if !ok {
			return nil, false
		}
		out[i%blockLanes] = merged
	}
	return out, true
}

// Reinterpret expresses p for lanes of toBytes instead of fromBytes.
// Merging fails when a group of narrow lanes disagrees.
func (p Blend) Reinterpret(fromBytes, toBytes int) (Blend, bool) {
	switch {
	case fromBytes == toBytes:
		return slices.Clone(p), true
	case toBytes < fromBytes:
		r := fromBytes / toBytes
		return lo.FlatMap(p, func(d Side, _ int) []Side {
			return lo.Times(r, func(int) Side { return d })
		}), true
	}
	r := toBytes / fromBytes
	if len(p)%r != 0 {
		return nil, false
	}
	out := make(Blend, 0, len(p)/r)
	for _, group := range lo.Chunk(p, r) {
		merged := Either
		for _, d := range group {
			var ok bool
			if merged, ok = mergeSide(merged, d); !ok {
				return nil, false
			}
		}
		out = append(out, merged)
	}
	return out, true
}

func mergeSide(a, b Side) (Side, bool) {
	switch {
	case a == Either:
		return b, true
	case b == Either || a == b:
		return a, true
	default:
		return 0, false
	}
}

func (p Blend) String() string {
	var sb strings.Builder
	for _, d := range p {
		switch d {
		case Left:
			sb.WriteByte('L')
		case Right:
			sb.WriteByte('R')
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// ParseBlend reads the form produced by Blend.String: one of L, R or _
// per lane.
func ParseBlend(s string) (Blend, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrSyntax
	}
	p := make(Blend, len(s))
	for i, c := range s {
		switch c {
		case 'L', 'l':
			p[i] = Left
		case 'R', 'r':
			p[i] = Right
		case '_', 'x', '*':
			p[i] = Either
		default:
			return nil, ErrSyntax
		}
	}
	return p, nil
}
