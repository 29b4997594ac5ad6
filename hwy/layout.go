package hwy

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrLaneCount is returned for lane counts the composition rule cannot
// represent: zero, negative, or not a power of two.
var ErrLaneCount = errors.New("hwy: lane count must be a positive power of two")

// Shape is the closed set of ways a logical vector maps onto registers:
// Native, SubNative or SuperNative.
type Shape interface {
	isShape()
}

// Native is a vector that fills exactly one register.
type Native struct{}

// SubNative is a vector narrower than the smallest register. It occupies
// the low lanes of a register of RegLanes lanes.
type SubNative struct {
	RegLanes int
}

// SuperNative is a vector wider than the widest register, stored as two
// halves of layout Half.
type SuperNative struct {
	Half *Layout
}

func (Native) isShape()      {}
func (SubNative) isShape()   {}
func (SuperNative) isShape() {}

// Layout describes how Lanes elements of Elem are stored on a target.
type Layout struct {
	Elem  ElementType
	Lanes int
	Shape Shape
}

// Resolve chooses the layout of a vector of lanes elements of e:
// Native when lanes is a native width, SubNative below the smallest one,
// and SuperNative (two halves, resolved recursively) above the widest.
func Resolve(t Target, e ElementType, lanes int) (Layout, error) {
	if lanes <= 0 || bits.OnesCount(uint(lanes)) != 1 {
		return Layout{}, fmt.Errorf("%w: %d", ErrLaneCount, lanes)
	}
	widths, err := t.NativeWidths(e)
	if err != nil {
		return Layout{}, err
	}
	lo, hi := widths[0], widths[len(widths)-1]
	switch {
	case lanes < lo:
		return Layout{Elem: e, Lanes: lanes, Shape: SubNative{RegLanes: lo}}, nil
	case lanes <= hi:
		// Widths are consecutive powers of two, so every power of two in
		// [lo, hi] is native.
		return Layout{Elem: e, Lanes: lanes, Shape: Native{}}, nil
	default:
		half, err := Resolve(t, e, lanes/2)
		if err != nil {
			return Layout{}, err
		}
		return Layout{Elem: e, Lanes: lanes, Shape: SuperNative{Half: &half}}, nil
	}
}

// RegisterLanes returns the lane count of each leaf register.
func (l Layout) RegisterLanes() int {
	switch s := l.Shape.(type) {
	case Native:
		return l.Lanes
	case SubNative:
		return s.RegLanes
	case SuperNative:
		return s.Half.RegisterLanes()
	default:
		panic(fmt.Sprintf("hwy: unknown shape %T", s))
	}
}

// RegisterBytes returns the size of each leaf register.
func (l Layout) RegisterBytes() int {
	return l.RegisterLanes() * l.Elem.Size()
}

// Registers returns the number of leaf registers.
func (l Layout) Registers() int {
	if s, ok := l.Shape.(SuperNative); ok {
		return 2 * s.Half.Registers()
	}
	return 1
}

// Depth returns the number of halving steps from l to its leaves.
func (l Layout) Depth() int {
	if s, ok := l.Shape.(SuperNative); ok {
		return 1 + s.Half.Depth()
	}
	return 0
}

// IsLeaf reports whether l is stored in a single register.
func (l Layout) IsLeaf() bool {
	_, super := l.Shape.(SuperNative)
	return !super
}

// Halves returns the layout of each half of a SuperNative layout.
func (l Layout) Halves() (Layout, bool) {
	if s, ok := l.Shape.(SuperNative); ok {
		return *s.Half, true
	}
	return Layout{}, false
}

func (l Layout) String() string {
	switch s := l.Shape.(type) {
	case Native:
		return fmt.Sprintf("%sx%d", l.Elem, l.Lanes)
	case SubNative:
		return fmt.Sprintf("%sx%d(in %d)", l.Elem, l.Lanes, s.RegLanes)
	case SuperNative:
		return fmt.Sprintf("%sx%d(2x%s)", l.Elem, l.Lanes, s.Half)
	default:
		return fmt.Sprintf("%sx%d(?)", l.Elem, l.Lanes)
	}
}
