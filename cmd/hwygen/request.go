package main

import (
	"fmt"
	"strings"

	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
	"github.com/KurtBoehm/grex-sub000/hwy/permute"
)

// Request describes one static operation to resolve: a pattern of a
// family applied to vectors of Lanes elements of type Elem.
type Request struct {
	Name    string
	Family  permute.Family
	Elem    hwy.ElementType
	Lanes   int
	Pattern string
}

// Sources returns the number of input vectors the operation takes.
func (r Request) Sources() int {
	switch r.Family {
	case permute.FamilyPair, permute.FamilyBlend:
		return 2
	default:
		return 1
	}
}

// Resolve lowers the request on the capability table of t.
func (r Request) Resolve(t hwy.Target) (*permute.Lowering, error) {
	layout, err := hwy.Resolve(t, r.Elem, r.Lanes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name, err)
	}
	var low *permute.Lowering
	switch r.Family {
	case permute.FamilyShuffle, permute.FamilyPair:
		p, err := pattern.Parse(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		if r.Family == permute.FamilyPair {
			low, err = permute.LowerShuffleTwo(t, layout, p)
		} else {
			low, err = permute.LowerShuffle(t, layout, p)
		}
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", r.Name, t.Name(), err)
		}
	case permute.FamilyBlend:
		p, err := pattern.ParseBlend(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		if low, err = permute.LowerBlend(t, layout, p); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", r.Name, t.Name(), err)
		}
	case permute.FamilyZeroBlend:
		p, err := pattern.ParseZeroBlend(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		if low, err = permute.LowerZeroBlend(t, layout, p); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", r.Name, t.Name(), err)
		}
	default:
		return nil, fmt.Errorf("%s: unknown operation family %q", r.Name, r.Family)
	}
	return low, nil
}

// parseFamily accepts the family names printed by permute.Family, plus
// "shuffle2" for two-source shuffles.
func parseFamily(s string) (permute.Family, error) {
	switch strings.ToLower(s) {
	case "shuffle":
		return permute.FamilyShuffle, nil
	case "pair", "shuffle2":
		return permute.FamilyPair, nil
	case "blend":
		return permute.FamilyBlend, nil
	case "zeroblend":
		return permute.FamilyZeroBlend, nil
	}
	return "", fmt.Errorf("unknown operation family %q (valid: shuffle, pair, blend, zeroblend)", s)
}

// parseOp parses the --op flag form "Name:family:pattern".
func parseOp(s string, elem hwy.ElementType, lanes int) (Request, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Request{}, fmt.Errorf("invalid --op %q: want Name:family:pattern", s)
	}
	family, err := parseFamily(parts[1])
	if err != nil {
		return Request{}, fmt.Errorf("invalid --op %q: %w", s, err)
	}
	return Request{
		Name:    parts[0],
		Family:  family,
		Elem:    elem,
		Lanes:   lanes,
		Pattern: parts[2],
	}, nil
}
