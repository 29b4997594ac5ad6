package hwy

import "fmt"

// Op names a primitive operation on native registers. Every lowering the
// permute package emits is a sequence of these.
type Op uint8

const (
	OpZero Op = iota
	OpConst
	// OpMaskConst materializes a compact mask from an immediate (KMOV).
	OpMaskConst
	OpAnd
	OpOr
	OpXor
	OpAndNot
	// OpCopyLane extracts one lane of a register and inserts it into another.
	OpCopyLane
	// OpTableBytes is a per-block byte table lookup (PSHUFB, TBL).
	OpTableBytes
	// OpShuffle32 shuffles the four 32-bit lanes of each block by immediate (PSHUFD).
	OpShuffle32
	// OpPermuteLanes permutes lanes across the whole register (VPERMD, VPERMQ, VPERMW).
	OpPermuteLanes
	// OpPermute2 permutes lanes drawn from two registers (VPERMT2*, TBL2).
	OpPermute2
	// OpBlend selects lanes of two registers by immediate (PBLENDW, VPBLENDD, masked move).
	OpBlend
	// OpBlendVar selects lanes of two registers by a mask register (PBLENDVB, BSL).
	OpBlendVar
	// OpZeroMasked zeroes lanes whose compact mask bit is clear (AVX-512 {z}).
	OpZeroMasked
	// OpAlignBytes concatenates two blocks and extracts a shifted window (PALIGNR, EXT).
	OpAlignBytes
	// OpShiftBytesUp moves bytes toward higher indices within blocks (PSLLDQ).
	OpShiftBytesUp
	// OpShiftBytesDown moves bytes toward lower indices within blocks (PSRLDQ).
	OpShiftBytesDown
	// OpBlockPermute permutes or zeroes whole 128-bit blocks (VPERM2I128, VSHUFI64X2).
	OpBlockPermute
	// OpInterleaveLower interleaves the lower halves of each block (PUNPCKL*, ZIP1).
	OpInterleaveLower
	// OpInterleaveUpper interleaves the upper halves of each block (PUNPCKH*, ZIP2).
	OpInterleaveUpper
	// OpCombine concatenates two registers into one of twice the size.
	OpCombine
	// OpLowerHalf reinterprets the lower half of a register as a narrower one.
	OpLowerHalf
	// OpUpperHalf extracts the upper half of a register.
	OpUpperHalf

	numOps
)

var opNames = [numOps]string{
	OpZero:            "Zero",
	OpConst:           "Const",
	OpMaskConst:       "MaskConst",
	OpAnd:             "And",
	OpOr:              "Or",
	OpXor:             "Xor",
	OpAndNot:          "AndNot",
	OpCopyLane:        "CopyLane",
	OpTableBytes:      "TableBytes",
	OpShuffle32:       "Shuffle32",
	OpPermuteLanes:    "PermuteLanes",
	OpPermute2:        "Permute2",
	OpBlend:           "Blend",
	OpBlendVar:        "BlendVar",
	OpZeroMasked:      "ZeroMasked",
	OpAlignBytes:      "AlignBytes",
	OpShiftBytesUp:    "ShiftBytesUp",
	OpShiftBytesDown:  "ShiftBytesDown",
	OpBlockPermute:    "BlockPermute",
	OpInterleaveLower: "InterleaveLower",
	OpInterleaveUpper: "InterleaveUpper",
	OpCombine:         "Combine",
	OpLowerHalf:       "LowerHalf",
	OpUpperHalf:       "UpperHalf",
}

func (o Op) String() string {
	if o < numOps {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Ops returns all primitive operations in declaration order.
func Ops() []Op {
	ops := make([]Op, numOps)
	for i := range ops {
		ops[i] = Op(i)
	}
	return ops
}

// Cost is an abstract estimate of the work of an instruction sequence:
// Throughput counts issued operations, Latency is the critical path.
type Cost struct {
	Throughput int
	Latency    int
}

// Add returns the cost of running c and d back to back.
func (c Cost) Add(d Cost) Cost {
	return Cost{Throughput: c.Throughput + d.Throughput, Latency: c.Latency + d.Latency}
}

// Less orders costs by throughput, then latency.
func (c Cost) Less(d Cost) bool {
	if c.Throughput != d.Throughput {
		return c.Throughput < d.Throughput
	}
	return c.Latency < d.Latency
}

// IsZero reports whether c represents no work at all.
func (c Cost) IsZero() bool {
	return c.Throughput == 0 && c.Latency == 0
}

func (c Cost) String() string {
	return fmt.Sprintf("(tp=%d, lat=%d)", c.Throughput, c.Latency)
}
