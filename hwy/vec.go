package hwy

// Vec is an elastic vector: a fixed number of lanes of T laid out on the
// registers of its tag (one register, part of one, or a tree of halves).
//
// Vec values are immutable. Every operation returns a new vector, so
// copies never observe each other's changes.
type Vec[T Lanes] struct {
	tag  Tag[T]
	regs []Reg
}

// FromRegisters builds a vector of tag d from its leaf registers in lane
// order. It panics if the registers do not match the tag's layout.
func FromRegisters[T Lanes](d Tag[T], regs []Reg) Vec[T] {
	if len(regs) != d.layout.Registers() {
		panic("hwy: register count does not match layout " + d.layout.String())
	}
	size := d.layout.RegisterBytes()
	for _, r := range regs {
		if r.Size() != size {
			panic("hwy: register size does not match layout " + d.layout.String())
		}
	}
	return Vec[T]{tag: d, regs: append([]Reg(nil), regs...)}
}

// leafLanes returns how many logical lanes each leaf register holds.
func (l Layout) leafLanes() int {
	return l.Lanes / l.Registers()
}

// Zero returns a vector with all lanes zero.
func (d Tag[T]) Zero() Vec[T] {
	regs := make([]Reg, d.layout.Registers())
	for i := range regs {
		regs[i] = NewReg(d.layout.RegisterBytes())
	}
	return Vec[T]{tag: d, regs: regs}
}

// Load creates a vector from the first Lanes elements of src. Missing
// elements and the unused lanes of a SubNative register are zero.
func (d Tag[T]) Load(src []T) Vec[T] {
	v := d.Zero()
	eb := d.layout.Elem.Size()
	leaf := d.layout.leafLanes()
	for i := range min(len(src), d.layout.Lanes) {
		r := &v.regs[i/leaf]
		*r = r.WithLane(eb, i%leaf, toBits(src[i]))
	}
	return v
}

// Set creates a vector with all lanes set to value.
func (d Tag[T]) Set(value T) Vec[T] {
	data := make([]T, d.layout.Lanes)
	for i := range data {
		data[i] = value
	}
	return d.Load(data)
}

// Iota creates a vector with lane i set to start + i.
func (d Tag[T]) Iota(start T) Vec[T] {
	data := make([]T, d.layout.Lanes)
	for i := range data {
		data[i] = start + T(i)
	}
	return d.Load(data)
}

// Tag returns the vector's tag.
func (v Vec[T]) Tag() Tag[T] {
	return v.tag
}

// Layout returns the vector's register layout.
func (v Vec[T]) Layout() Layout {
	return v.tag.layout
}

// NumLanes returns the number of lanes (elements) in this vector.
func (v Vec[T]) NumLanes() int {
	return v.tag.layout.Lanes
}

// Registers returns a copy of the leaf registers in lane order.
func (v Vec[T]) Registers() []Reg {
	return append([]Reg(nil), v.regs...)
}

// Data returns the lanes as a new slice.
// This is primarily for testing and should not be used in performance-critical code.
func (v Vec[T]) Data() []T {
	out := make([]T, v.NumLanes())
	v.Store(out)
	return out
}

// Store writes the vector's lanes to dst, up to len(dst).
func (v Vec[T]) Store(dst []T) {
	eb := v.tag.layout.Elem.Size()
	leaf := v.tag.layout.leafLanes()
	for i := range min(len(dst), v.NumLanes()) {
		dst[i] = fromBits[T](v.regs[i/leaf].Lane(eb, i%leaf))
	}
}

// GetLane extracts a single lane value from the vector.
// Returns zero value if index is out of bounds.
func GetLane[T Lanes](v Vec[T], idx int) T {
	if idx < 0 || idx >= v.NumLanes() {
		var zero T
		return zero
	}
	leaf := v.tag.layout.leafLanes()
	return fromBits[T](v.regs[idx/leaf].Lane(v.tag.layout.Elem.Size(), idx%leaf))
}

// InsertLane returns a new vector with the value inserted at the given lane.
// Returns original vector if index is out of bounds.
func InsertLane[T Lanes](v Vec[T], idx int, val T) Vec[T] {
	if idx < 0 || idx >= v.NumLanes() {
		return v
	}
	regs := v.Registers()
	leaf := v.tag.layout.leafLanes()
	regs[idx/leaf] = regs[idx/leaf].WithLane(v.tag.layout.Elem.Size(), idx%leaf, toBits(val))
	return Vec[T]{tag: v.tag, regs: regs}
}

// Add performs element-wise addition.
func Add[T Lanes](a, b Vec[T]) Vec[T] {
	return zipLanes(a, b, func(x, y T) T { return x + y })
}

// Sub performs element-wise subtraction.
func Sub[T Lanes](a, b Vec[T]) Vec[T] {
	return zipLanes(a, b, func(x, y T) T { return x - y })
}

// Mul performs element-wise multiplication.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	return zipLanes(a, b, func(x, y T) T { return x * y })
}

func zipLanes[T Lanes](a, b Vec[T], f func(x, y T) T) Vec[T] {
	x, y := a.Data(), b.Data()
	for i := range x {
		x[i] = f(x[i], y[i])
	}
	return a.tag.Load(x)
}

// And performs bitwise AND on every register.
func And[T Lanes](a, b Vec[T]) Vec[T] {
	return zipRegs(a, b, Reg.And)
}

// Or performs bitwise OR on every register.
func Or[T Lanes](a, b Vec[T]) Vec[T] {
	return zipRegs(a, b, Reg.Or)
}

// Xor performs bitwise XOR on every register.
func Xor[T Lanes](a, b Vec[T]) Vec[T] {
	return zipRegs(a, b, Reg.Xor)
}

// AndNot computes ^a & b on every register.
func AndNot[T Lanes](a, b Vec[T]) Vec[T] {
	return zipRegs(a, b, Reg.AndNot)
}

func zipRegs[T Lanes](a, b Vec[T], f func(x, y Reg) Reg) Vec[T] {
	regs := make([]Reg, len(a.regs))
	for i := range regs {
		regs[i] = f(a.regs[i], b.regs[i])
	}
	return Vec[T]{tag: a.tag, regs: regs}
}
