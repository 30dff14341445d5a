package memgo

import (
	"fmt"
	"unsafe"
)

// Pointer is a typed raw pointer: an address-sized handle parameterized by
// its pointee type. The zero value is the null pointer.
//
// Pointer carries no ownership, no bounds, and no synchronization. Multiple
// copies may alias the same address; coordinating access and deciding who
// frees is entirely the caller's responsibility.
type Pointer[T any] struct {
	ptr unsafe.Pointer
}

// Null returns the null pointer for T.
func Null[T any]() Pointer[T] {
	return Pointer[T]{}
}

// AddressOf returns a pointer aliasing the storage of an existing value.
// The result does not own the storage and must not be passed to Free.
//
// If v lives on the Go heap the usual unsafe rules apply: the address is
// only stable while v is reachable.
func AddressOf[T any](v *T) Pointer[T] {
	return Pointer[T]{ptr: unsafe.Pointer(v)}
}

// FromAddress constructs a pointer from a raw integer address, for interop
// with foreign-allocated memory. Ownership of the address is determined by
// convention, not tracked; the address must not point into the Go heap.
func FromAddress[T any](addr uintptr) Pointer[T] {
	return Pointer[T]{ptr: unsafe.Pointer(addr)} //nolint:govet,gosec // interop boundary: addr originates outside the Go heap
}

// Addr returns the address as an integer. Zero means null.
func (p Pointer[T]) Addr() uintptr {
	return uintptr(p.ptr)
}

// IsNull reports whether the pointer is null.
func (p Pointer[T]) IsNull() bool {
	return p.ptr == nil
}

// Offset returns a pointer n elements away, scaled by the element size.
// n may be negative. No bounds checking is performed.
func (p Pointer[T]) Offset(n int) Pointer[T] {
	return Pointer[T]{ptr: unsafe.Add(p.ptr, n*int(sizeOf[T]()))}
}

// Add is shorthand for Offset(n).
func (p Pointer[T]) Add(n int) Pointer[T] { return p.Offset(n) }

// Sub is shorthand for Offset(-n).
func (p Pointer[T]) Sub(n int) Pointer[T] { return p.Offset(-n) }

// Load reads the element at offset 0. The pointer must be non-null and the
// pointee initialized; otherwise behavior is undefined.
func (p Pointer[T]) Load() T {
	return *(*T)(p.ptr)
}

// Store overwrites the element at offset 0 without running the old value's
// destructor. Use Destroy first if the slot holds a live value that needs
// teardown, or Init to mark first initialization explicitly.
func (p Pointer[T]) Store(v T) {
	*(*T)(p.ptr) = v
}

// LoadAt reads the element n positions from the pointer, equivalent to
// p.Offset(n).Load().
func (p Pointer[T]) LoadAt(n int) T {
	return p.Offset(n).Load()
}

// StoreAt writes the element n positions from the pointer, equivalent to
// p.Offset(n).Store(v).
func (p Pointer[T]) StoreAt(n int, v T) {
	p.Offset(n).Store(v)
}

// Slice returns a zero-copy view over n contiguous elements starting at the
// pointer. The slice aliases the raw memory and is valid only while the
// backing storage is.
func (p Pointer[T]) Slice(n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(p.ptr), n)
}

// Clear zeroes n contiguous elements starting at the pointer.
func (p Pointer[T]) Clear(n int) {
	clear(p.Slice(n))
}

// String implements fmt.Stringer.
func (p Pointer[T]) String() string {
	return fmt.Sprintf("Pointer(0x%x)", uintptr(p.ptr))
}

// Bitcast reinterprets the address as pointing to a different element type.
// No conversion is performed; the caller must ensure the reinterpreted
// layout and alignment are valid for U.
func Bitcast[U, T any](p Pointer[T]) Pointer[U] {
	return Pointer[U]{ptr: p.ptr}
}

// Diff returns the element distance a - b. Both pointers must address
// elements of the same allocation for the result to be meaningful. For a
// zero-size T every element shares one address, so the distance is 0.
func Diff[T any](a, b Pointer[T]) int {
	size := int(sizeOf[T]())
	if size == 0 {
		return 0
	}
	return int(int64(a.Addr())-int64(b.Addr())) / size
}

// Copy copies n elements from src to dst. The ranges may overlap.
func Copy[T any](dst, src Pointer[T], n int) {
	copy(dst.Slice(n), src.Slice(n))
}

func sizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
