package permute

import (
	"github.com/KurtBoehm/grex-sub000/hwy"
	"github.com/KurtBoehm/grex-sub000/hwy/pattern"
)

// This file provides the named shuffle and permutation operations as
// compiled plans. Build a plan once per tag and Apply it as often as
// needed; like the Must constructors, these panic if a pattern cannot be
// lowered.

// Reverse reverses the order of lanes.
// [0,1,2,3,4,5,6,7] -> [7,6,5,4,3,2,1,0]
func Reverse[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffle(d, pattern.Reverse(d.Lanes()))
}

// Reverse2 reverses pairs of lanes.
// [0,1,2,3,4,5,6,7] -> [1,0,3,2,5,4,7,6]
func Reverse2[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffle(d, pattern.ReverseGroups(d.Lanes(), 2))
}

// Reverse4 reverses groups of 4 lanes.
// [0,1,2,3,4,5,6,7] -> [3,2,1,0,7,6,5,4]
func Reverse4[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffle(d, pattern.ReverseGroups(d.Lanes(), 4))
}

// Reverse8 reverses groups of 8 lanes.
func Reverse8[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffle(d, pattern.ReverseGroups(d.Lanes(), 8))
}

// Broadcast copies one lane to all lanes. An out-of-range lane yields a
// zero vector.
func Broadcast[T hwy.Lanes](d hwy.Tag[T], lane int) *Plan[T] {
	return MustCompileShuffle(d, pattern.Broadcast(d.Lanes(), lane))
}

// DupEven duplicates even lanes.
// [a0,a1,a2,a3] -> [a0,a0,a2,a2]
func DupEven[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffle(d, pattern.DupEven(d.Lanes()))
}

// DupOdd duplicates odd lanes.
// [a0,a1,a2,a3] -> [a1,a1,a3,a3]
func DupOdd[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffle(d, pattern.DupOdd(d.Lanes()))
}

// SwapAdjacentBlocks swaps adjacent 128-bit blocks. Lanes of a trailing
// unpaired block keep their place.
func SwapAdjacentBlocks[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	blockLanes := 16 / d.Layout().Elem.Size()
	return MustCompileShuffle(d, pattern.SwapAdjacentBlocks(d.Lanes(), blockLanes))
}

// Shuffle0123 applies the same 4-lane shuffle to every group of 4 lanes.
// Shuffle0123(d, 3, 2, 1, 0) reverses each group.
func Shuffle0123[T hwy.Lanes](d hwy.Tag[T], i0, i1, i2, i3 int) *Plan[T] {
	return MustCompileShuffle(d, pattern.Per4(d.Lanes(), [4]int{i0, i1, i2, i3}))
}

// Per4LaneBlockShuffle is Shuffle0123 with the selectors packed two bits
// each, lane 0 in the low bits.
func Per4LaneBlockShuffle[T hwy.Lanes](d hwy.Tag[T], imm uint8) *Plan[T] {
	return Shuffle0123(d, int(imm&3), int(imm>>2&3), int(imm>>4&3), int(imm>>6&3))
}

// SlideUpLanes moves lanes offset positions toward higher indices, filling
// with zeros.
// [1,2,3,4,5,6,7,8] with offset=2 -> [0,0,1,2,3,4,5,6]
func SlideUpLanes[T hwy.Lanes](d hwy.Tag[T], offset int) *Plan[T] {
	return MustCompileShuffle(d, pattern.SlideUp(d.Lanes(), offset))
}

// SlideDownLanes moves lanes offset positions toward lower indices,
// filling with zeros.
// [1,2,3,4,5,6,7,8] with offset=2 -> [3,4,5,6,7,8,0,0]
func SlideDownLanes[T hwy.Lanes](d hwy.Tag[T], offset int) *Plan[T] {
	return MustCompileShuffle(d, pattern.SlideDown(d.Lanes(), offset))
}

// Slide1Up is SlideUpLanes by one lane.
func Slide1Up[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return SlideUpLanes(d, 1)
}

// Slide1Down is SlideDownLanes by one lane.
func Slide1Down[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return SlideDownLanes(d, 1)
}

// InterleaveLower interleaves the lower halves of two vectors.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [a0,b0,a1,b1]
func InterleaveLower[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffleTwo(d, pattern.InterleaveLower(d.Lanes()))
}

// InterleaveUpper interleaves the upper halves of two vectors.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [a2,b2,a3,b3]
func InterleaveUpper[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffleTwo(d, pattern.InterleaveUpper(d.Lanes()))
}

// ZipLower is InterleaveLower under its C++ Highway name.
func ZipLower[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return InterleaveLower(d)
}

// ZipUpper is InterleaveUpper under its C++ Highway name.
func ZipUpper[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return InterleaveUpper(d)
}

// ConcatLowerLower concatenates the lower halves of two vectors.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [a0,a1,b0,b1]
func ConcatLowerLower[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffleTwo(d, pattern.ConcatLowerLower(d.Lanes()))
}

// ConcatUpperUpper concatenates the upper halves of two vectors.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [a2,a3,b2,b3]
func ConcatUpperUpper[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffleTwo(d, pattern.ConcatUpperUpper(d.Lanes()))
}

// ConcatLowerUpper concatenates the lower half of a with the upper half of b.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [a0,a1,b2,b3]
func ConcatLowerUpper[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffleTwo(d, pattern.ConcatLowerUpper(d.Lanes()))
}

// ConcatUpperLower concatenates the upper half of a with the lower half of b.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [a2,a3,b0,b1]
func ConcatUpperLower[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileShuffleTwo(d, pattern.ConcatUpperLower(d.Lanes()))
}

// OddEven takes even lanes from b and odd lanes from a.
// [a0,a1,a2,a3], [b0,b1,b2,b3] -> [b0,a1,b2,a3]
func OddEven[T hwy.Lanes](d hwy.Tag[T]) *Plan[T] {
	return MustCompileBlend(d, pattern.OddEven(d.Lanes()))
}

// KeepFirstN zeroes every lane from index n on.
func KeepFirstN[T hwy.Lanes](d hwy.Tag[T], n int) *Plan[T] {
	return MustCompileZeroBlend(d, pattern.FirstN(d.Lanes(), n))
}
