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

package hwy

import "fmt"

// Tag fixes the element type, lane count and target of a family of
// vectors, and with them the layout every vector of the family shares.
//
// Usage:
//
//	tag := hwy.MustTag[float32](hwy.MustTarget(hwy.DispatchAVX2), 16)
//	v := tag.Load(data) // two 8-lane registers
type Tag[T Lanes] struct {
	target Target
	layout Layout
}

// NewTag resolves the layout of lanes elements of T on target.
func NewTag[T Lanes](target Target, lanes int) (Tag[T], error) {
	layout, err := Resolve(target, ElementTypeOf[T](), lanes)
	if err != nil {
		return Tag[T]{}, fmt.Errorf("hwy: tag %v x %d on %s: %w", ElementTypeOf[T](), lanes, target.Name(), err)
	}
	return Tag[T]{target: target, layout: layout}, nil
}

// MustTag is like NewTag but panics on error. It is intended for
// package-level tags whose parameters are constants.
func MustTag[T Lanes](target Target, lanes int) Tag[T] {
	t, err := NewTag[T](target, lanes)
	if err != nil {
		panic(err)
	}
	return t
}

// FixedTag returns the tag of lanes elements of T on the current target.
func FixedTag[T Lanes](lanes int) Tag[T] {
	return MustTag[T](CurrentTarget(), lanes)
}

// ScalableTag returns the tag filling the widest register of the current
// target.
func ScalableTag[T Lanes]() Tag[T] {
	t := CurrentTarget()
	return MustTag[T](t, MaxLanes[T](t))
}

// MaxLanes returns the lane count of T in the widest register of t.
//
// For example, with AVX2 (256 bits / 32 bytes):
//   - float32: 32/4 = 8 lanes
//   - float64: 32/8 = 4 lanes
func MaxLanes[T Lanes](t Target) int {
	return t.MaxRegisterBytes() / ElementTypeOf[T]().Size()
}

// Target returns the target the tag was resolved on.
func (d Tag[T]) Target() Target {
	return d.target
}

// Layout returns the register layout shared by vectors of this tag.
func (d Tag[T]) Layout() Layout {
	return d.layout
}

// Lanes returns the logical lane count.
func (d Tag[T]) Lanes() int {
	return d.layout.Lanes
}

// Name returns a short description such as "avx2:float32x16".
func (d Tag[T]) Name() string {
	return fmt.Sprintf("%s:%s", d.target.Name(), d.layout)
}
