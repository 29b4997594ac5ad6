// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package permute

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/KurtBoehm/grex-sub000/hwy"
)

// ErrNoStrategy is returned when no strategy of a catalog applies to a
// pattern. Every catalog ends in a baseline that always applies, so this
// indicates an incomplete catalog.
var ErrNoStrategy = errors.New("permute: no applicable strategy")

// Family names an operation family; each has its own catalog.
type Family string

const (
	FamilyShuffle   Family = "shuffle"
	FamilyPair      Family = "pair"
	FamilyBlend     Family = "blend"
	FamilyZeroBlend Family = "zeroblend"
)

// Choice records one selection made while lowering an operation.
type Choice struct {
	// Path locates the register the choice applies to in the layout tree:
	// "" for a leaf layout, otherwise halves joined by "/" ("lo/hi").
	Path     string
	Family   Family
	Strategy string
	Cost     hwy.Cost
}

func (c Choice) String() string {
	path := c.Path
	if path == "" {
		path = "."
	}
	return fmt.Sprintf("%s %s:%s %v", path, c.Family, c.Strategy, c.Cost)
}

// lowering is the register-level context of a native selection: target,
// lane size and register size.
type lowering struct {
	target hwy.Target
	elem   int
	size   int
}

func (c lowering) String() string {
	return fmt.Sprintf("%s e%d %dB", c.target.Name(), c.elem, c.size)
}

func (c lowering) lanes() int {
	return c.size / c.elem
}

// block returns the size of the unit block ops act within.
func (c lowering) block() int {
	return min(c.size, 16)
}

func (c lowering) blocks() int {
	return c.size / c.block()
}

func (c lowering) supports(op hwy.Op) bool {
	return c.target.Supports(op, c.elem, c.size)
}

func (c lowering) supportsAt(op hwy.Op, elem int) bool {
	return c.target.Supports(op, elem, c.size)
}

func (c lowering) wider() lowering {
	return lowering{target: c.target, elem: c.elem, size: 2 * c.size}
}

// Strategy is one way of realizing a pattern of family P. A strategy only
// applies when its predicate holds; its cost is the cost of the steps it
// emits, so strategies that emit nothing are free.
type Strategy[P any] struct {
	Name    string
	applies func(c lowering, p P) bool
	emit    func(b *builder, c lowering, in []Value, p P) Value
}

// Catalog returns the strategy names of a family in declaration order,
// which is also the tie-break order.
func Catalog(f Family) []string {
	switch f {
	case FamilyShuffle:
		return strategyNames(shuffleCatalog)
	case FamilyPair:
		return strategyNames(pairCatalog)
	case FamilyBlend:
		return strategyNames(blendCatalog)
	case FamilyZeroBlend:
		return strategyNames(zeroBlendCatalog)
	}
	return nil
}

func strategyNames[P any](catalog []Strategy[P]) []string {
	return lo.Map(catalog, func(s Strategy[P], _ int) string { return s.Name })
}

// choose prices every applicable strategy of catalog on a scratch builder,
// splices the cheapest into b and returns its result. Ties go to the
// strategy declared first.
func choose[P fmt.Stringer](b *builder, c lowering, family Family, catalog []Strategy[P], in []Value, p P) Value {
	if b.err != nil {
		return in[0]
	}
	var (
		best     *builder
		bestOut  Value
		bestName string
		bestCost hwy.Cost
	)
	for _, s := range catalog {
		if !s.applies(c, p) {
			continue
		}
		sb := b.scratch(in)
		out := s.emit(sb, c, sb.inputValues(), p)
		if sb.err != nil {
			continue
		}
		cost := sb.cost(out)
		if best == nil || cost.Less(bestCost) {
			best, bestOut, bestName, bestCost = sb, out, s.Name, cost
		}
	}
	if best == nil {
		b.err = fmt.Errorf("%w: %s %v on %v", ErrNoStrategy, family, p, c)
		return in[0]
	}
	out := b.splice(best, in, bestOut)
	b.choices = append(b.choices, Choice{Path: b.path, Family: family, Strategy: bestName, Cost: bestCost})
	return out
}
