// Package hwy provides portable fixed-width SIMD vectors whose lane count
// need not match a hardware register.
//
// It follows the Highway C++ library's design philosophy: write once,
// lower everywhere. A vector of N lanes is laid out on the registers of an
// explicit Target: natively when N matches a register, packed into the
// smallest register when N is smaller, or composed from two halves when N
// is larger than the widest register.
//
// Basic usage:
//
//	import "github.com/KurtBoehm/grex-sub000/hwy"
//
//	tag := hwy.MustTag[float32](hwy.CurrentTarget(), 16)
//	a := tag.Load(data1)
//	b := tag.Load(data2)
//	result := hwy.Add(a, b)
//	result.Store(output)
//
// Static permutations (shuffles, blends, conditional zeroing) are compiled
// into instruction programs by the permute sub-package.
package hwy

import (
	"fmt"
	"math"
	"unsafe"
)

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for all types that can be stored in SIMD lanes.
type Lanes interface {
	Floats | Integers
}

// ElementType identifies the scalar kind stored in each lane.
type ElementType uint8

const (
	Int8 ElementType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

// Size returns the element size in bytes.
func (e ElementType) Size() int {
	switch e {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether e is an IEEE floating-point type.
func (e ElementType) IsFloat() bool {
	return e == Float32 || e == Float64
}

// IsSigned reports whether e is a signed integer type.
func (e ElementType) IsSigned() bool {
	return e == Int8 || e == Int16 || e == Int32 || e == Int64
}

func (e ElementType) String() string {
	switch e {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("ElementType(%d)", uint8(e))
	}
}

// ParseElementType returns the element type named by s ("int32", "float64", ...).
func ParseElementType(s string) (ElementType, error) {
	for e := Int8; e <= Float64; e++ {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("hwy: unknown element type %q", s)
}

// ElementTypeOf returns the ElementType of T.
func ElementTypeOf[T Lanes]() ElementType {
	var zero T
	switch unsafe.Sizeof(zero) {
	case 1:
		if isSigned[T]() {
			return Int8
		}
		return Uint8
	case 2:
		if isSigned[T]() {
			return Int16
		}
		return Uint16
	case 4:
		if isFloat[T]() {
			return Float32
		}
		if isSigned[T]() {
			return Int32
		}
		return Uint32
	default:
		if isFloat[T]() {
			return Float64
		}
		if isSigned[T]() {
			return Int64
		}
		return Uint64
	}
}

// isFloat distinguishes floats from integers of the same size: only floats
// keep a fractional part.
func isFloat[T Lanes]() bool {
	half := T(1) / T(2)
	return half != 0
}

func isSigned[T Lanes]() bool {
	var zero T
	return zero-1 < zero
}

// toBits returns the little-endian bit pattern of v, zero-extended.
func toBits[T Lanes](v T) uint64 {
	switch unsafe.Sizeof(v) {
	case 1:
		return uint64(*(*uint8)(unsafe.Pointer(&v)))
	case 2:
		return uint64(*(*uint16)(unsafe.Pointer(&v)))
	case 4:
		return uint64(*(*uint32)(unsafe.Pointer(&v)))
	default:
		return *(*uint64)(unsafe.Pointer(&v))
	}
}

// fromBits is the inverse of toBits.
func fromBits[T Lanes](b uint64) T {
	var v T
	switch unsafe.Sizeof(v) {
	case 1:
		*(*uint8)(unsafe.Pointer(&v)) = uint8(b)
	case 2:
		*(*uint16)(unsafe.Pointer(&v)) = uint16(b)
	case 4:
		*(*uint32)(unsafe.Pointer(&v)) = uint32(b)
	default:
		*(*uint64)(unsafe.Pointer(&v)) = b
	}
	return v
}

// laneMask returns the all-ones pattern for a lane of size bytes.
func laneMask(size int) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	return 1<<(8*size) - 1
}
