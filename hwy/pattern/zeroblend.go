package pattern

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Keep says whether a ZeroBlend lane keeps its input or is cleared.
type Keep int8

const (
	DontCare Keep = iota - 1
	ClearLane
	KeepLane
)

// ZeroBlend gives, for each lane of a single input, whether the lane is
// kept, zeroed, or don't-care.
type ZeroBlend []Keep

// KeepAll returns the no-op pattern of n lanes.
func KeepAll(n int) ZeroBlend {
	return lo.Times(n, func(int) Keep { return KeepLane })
}

// RequiresZeroing reports whether at least one lane must be cleared.
func (p ZeroBlend) RequiresZeroing() bool {
	return slices.Contains(p, ClearLane)
}

// ClearsAll reports whether no lane needs to be kept.
func (p ZeroBlend) ClearsAll() bool {
	return !slices.Contains(p, KeepLane)
}

// Lower returns the first half of p.
func (p ZeroBlend) Lower() ZeroBlend {
	return slices.Clone(p[:len(p)/2])
}

// Upper returns the second half of p.
func (p ZeroBlend) Upper() ZeroBlend {
	return slices.Clone(p[len(p)/2:])
}

// Pad extends p to n lanes with DontCare.
func (p ZeroBlend) Pad(n int) ZeroBlend {
	out := slices.Clone(p)
	for len(out) < n {
		out = append(out, DontCare)
	}
	return out
}

// Bits returns a bitmask with bit i set where lane i is kept. DontCare
// lanes are kept.
func (p ZeroBlend) Bits() uint64 {
	var bits uint64
	for i, d := range p {
		if d != ClearLane {
			bits |= 1 << i
		}
	}
	return bits
}

// Blend returns p as a selection between the input (Left) and a zero
// vector (Right).
func (p ZeroBlend) Blend() Blend {
	return lo.Map(p, func(d Keep, _ int) Side {
		switch d {
		case KeepLane:
			return Left
		case ClearLane:
			return Right
		default:
			return Either
		}
	})
}

// Shuffle returns p as a single-source Shuffle.
func (p ZeroBlend) Shuffle() Shuffle {
	return lo.Map(p, func(d Keep, i int) int {
		switch d {
		case KeepLane:
			return i
		case ClearLane:
			return Zero
		default:
			return Any
		}
	})
}

// AsSingleLane folds p onto one block of blockLanes lanes; all blocks must
// agree at each position, with DontCare as a wildcard.
func (p ZeroBlend) AsSingleLane(blockLanes int) (ZeroBlend, bool) {
	b, ok := p.Blend().AsSingleLane(blockLanes)
	if !ok {
		return nil, false
	}
	return fromBlend(b), true
}

// Reinterpret expresses p for lanes of toBytes instead of fromBytes.
func (p ZeroBlend) Reinterpret(fromBytes, toBytes int) (ZeroBlend, bool) {
	b, ok := p.Blend().Reinterpret(fromBytes, toBytes)
	if !ok {
		return nil, false
	}
	return fromBlend(b), true
}

func fromBlend(b Blend) ZeroBlend {
	return lo.Map(b, func(s Side, _ int) Keep {
		switch s {
		case Left:
			return KeepLane
		case Right:
			return ClearLane
		default:
			return DontCare
		}
	})
}

func (p ZeroBlend) String() string {
	var sb strings.Builder
	for _, d := range p {
		switch d {
		case KeepLane:
			sb.WriteByte('K')
		case ClearLane:
			sb.WriteByte('z')
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// ParseZeroBlend reads the form produced by ZeroBlend.String: one of K, z
// or _ per lane.
func ParseZeroBlend(s string) (ZeroBlend, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrSyntax
	}
	p := make(ZeroBlend, len(s))
	for i, c := range s {
		switch c {
		case 'K', 'k':
			p[i] = KeepLane
		case 'z', 'Z':
			p[i] = ClearLane
		case '_', 'x', '*':
			p[i] = DontCare
		default:
			return nil, ErrSyntax
		}
	}
	return p, nil
}
