package pattern

import "github.com/samber/lo"

// Constructors for the named permutations of go-highway's shuffle API.
// Two-source patterns index the concatenation of a (lanes 0..n-1) and b
// (lanes n..2n-1).

// Reverse reverses the order of n lanes.
func Reverse(n int) Shuffle {
	return lo.Times(n, func(i int) int { return n - 1 - i })
}

// ReverseGroups reverses each group of g lanes.
// ReverseGroups(8, 2) = [1,0,3,2,5,4,7,6].
func ReverseGroups(n, g int) Shuffle {
	g = min(g, n)
	return lo.Times(n, func(i int) int { return i/g*g + g - 1 - i%g })
}

// Broadcast copies lane to all n lanes. An out-of-range lane yields zeros.
func Broadcast(n, lane int) Shuffle {
	return lo.Times(n, func(int) int {
		if lane < 0 || lane >= n {
			return Zero
		}
		return lane
	})
}

// DupEven duplicates even lanes: [0,0,2,2,...].
func DupEven(n int) Shuffle {
	return lo.Times(n, func(i int) int { return i &^ 1 })
}

// DupOdd duplicates odd lanes: [1,1,3,3,...]. A lane without an odd
// partner keeps itself.
func DupOdd(n int) Shuffle {
	return lo.Times(n, func(i int) int {
		if i|1 < n {
			return i | 1
		}
		return i
	})
}

// SwapAdjacentBlocks swaps adjacent blocks of blockLanes lanes. Lanes of a
// trailing unpaired block stay in place.
func SwapAdjacentBlocks(n, blockLanes int) Shuffle {
	return lo.Times(n, func(i int) int {
		pair := i / (2 * blockLanes) * (2 * blockLanes)
		if pair+2*blockLanes > n {
			return i
		}
		return i ^ blockLanes
	})
}

// SlideUp moves lanes k positions toward higher indices, filling with zero.
// A negative k is treated as zero.
func SlideUp(n, k int) Shuffle {
	k = max(k, 0)
	return lo.Times(n, func(i int) int {
		if i < k {
			return Zero
		}
		return i - k
	})
}

// SlideDown moves lanes k positions toward lower indices, filling with zero.
// A negative k is treated as zero.
func SlideDown(n, k int) Shuffle {
	k = max(k, 0)
	return lo.Times(n, func(i int) int {
		if i+k >= n {
			return Zero
		}
		return i + k
	})
}

// Per4 applies the same 4-lane shuffle to every group of four lanes.
// Fewer than four lanes are left in place.
func Per4(n int, sel [4]int) Shuffle {
	if n < 4 {
		return Identity(n)
	}
	return lo.Times(n, func(i int) int { return i&^3 + sel[i&3] })
}

// InterleaveLower interleaves the lower halves of a and b: [a0,b0,a1,b1,...].
func InterleaveLower(n int) Shuffle {
	return lo.Times(n, func(i int) int { return i%2*n + i/2 })
}

// InterleaveUpper interleaves the upper halves of a and b.
func InterleaveUpper(n int) Shuffle {
	return lo.Times(n, func(i int) int { return i%2*n + n/2 + i/2 })
}

// ConcatLowerLower concatenates the lower halves of a and b.
func ConcatLowerLower(n int) Shuffle {
	return concat(n, 0, n)
}

// ConcatUpperUpper concatenates the upper halves of a and b.
func ConcatUpperUpper(n int) Shuffle {
	return concat(n, n/2, n+n/2)
}

// ConcatLowerUpper concatenates the lower half of a with the upper half of b.
func ConcatLowerUpper(n int) Shuffle {
	return concat(n, 0, n+n/2)
}

// ConcatUpperLower concatenates the upper half of a with the lower half of b.
func ConcatUpperLower(n int) Shuffle {
	return concat(n, n/2, n)
}

func concat(n, lo0, hi0 int) Shuffle {
	h := n / 2
	return lo.Times(n, func(i int) int {
		if i < h {
			return lo0 + i
		}
		return hi0 + i - h
	})
}

// OddEven takes odd lanes from a and even lanes from b.
func OddEven(n int) Blend {
	return lo.Times(n, func(i int) Side {
		if i%2 == 0 {
			return Right
		}
		return Left
	})
}

// FirstN keeps the first k of n lanes and clears the rest.
func FirstN(n, k int) ZeroBlend {
	return lo.Times(n, func(i int) Keep {
		if i < k {
			return KeepLane
		}
		return ClearLane
	})
}
