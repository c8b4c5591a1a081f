// Package ir defines the kernel intermediate representation the optimizer
// consumes: typed virtual variables, operations over them, and the nested
// scope tree that a frontend lowers a kernel body into. None of this
// package is transformed by the optimizer; it is the input contract.
package ir

// Elem is the scalar element type underlying an Item.
type Elem int

const (
	ElemBool Elem = iota
	ElemI32
	ElemI64
	ElemU32
	ElemU64
	ElemF16
	ElemF32
	ElemF64
	ElemAtomicI32
	ElemAtomicU32
)

// Bits returns the width in bits of a single lane of elem.
func (e Elem) Bits() int {
	switch e {
	case ElemBool:
		return 1
	case ElemI32, ElemU32, ElemF32, ElemAtomicI32, ElemAtomicU32:
		return 32
	case ElemI64, ElemU64, ElemF64:
		return 64
	case ElemF16:
		return 16
	default:
		return 32
	}
}

// IsAtomic reports whether elem is one of the atomic element kinds, which
// are excluded from SSA (see Item.IsAtomic).
func (e Elem) IsAtomic() bool {
	return e == ElemAtomicI32 || e == ElemAtomicU32
}

// IsInt reports whether elem is an integer (signed or unsigned, atomic or
// not); used by range analysis to decide whether a versioned variable is a
// candidate for interval tracking.
func (e Elem) IsInt() bool {
	switch e {
	case ElemI32, ElemI64, ElemU32, ElemU64, ElemAtomicI32, ElemAtomicU32:
		return true
	default:
		return false
	}
}

// Item is an element type paired with a vectorization (lane count). Valid
// vectorizations are 1, 2, 3, 4 or 8.
type Item struct {
	Elem           Elem
	Vectorization  uint8
}

// Scalar returns an Item with vectorization 1.
func Scalar(e Elem) Item { return Item{Elem: e, Vectorization: 1} }

// Vectorized returns an Item with the given lane count.
func Vectorized(e Elem, factor uint8) Item { return Item{Elem: e, Vectorization: factor} }

// Width returns the total bit width of the item (element width * lanes).
func (i Item) Width() int { return i.Elem.Bits() * int(i.Vectorization) }

// IsScalar reports whether i has a single lane.
func (i Item) IsScalar() bool { return i.Vectorization <= 1 }

// IsAtomic reports whether values of this item are excluded from SSA.
func (i Item) IsAtomic() bool { return i.Elem.IsAtomic() }
