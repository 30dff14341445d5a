// Package memgo provides manual memory management primitives for Go.
//
// The core type is Pointer[T], a typed raw pointer over off-heap storage
// with explicit allocation, deallocation, pointer arithmetic, and value
// lifecycle operations (initialize, take, destroy). Memory obtained from
// Alloc lives outside the Go garbage collector; the caller pairs every
// Alloc with exactly one Free.
//
// # Quick Start
//
//	p := memgo.Alloc[float32](6)
//	defer memgo.Free(p)
//
//	for i := 0; i < 6; i++ {
//	    p.StoreAt(i, 0)
//	}
//	p.StoreAt(2, 3.0)
//
//	fmt.Println(p.Slice(6)) // [0 0 3 0 0 0]
//
// # Safety Model
//
// The raw API performs no bounds, null, or initialization checking.
// Dereferencing a null or freed pointer, freeing a non-owned address, or
// reading memory that was never initialized is undefined behavior, exactly
// as in a systems language. Where a violation is cheap to detect (freeing
// an address the allocator does not own) the package panics, but this is a
// debugging aid, not a contract.
//
// For development and testing, the checked sub-package wraps the same
// operations with full state tracking and reports violations as errors.
//
// # Ownership
//
// Pointer[T] is non-owning: copying it copies an address, nothing more.
// Exactly one logical owner must call Free, determined by convention.
// Owned[T] ties an allocation to a handle that frees on Close for
// scope-bound lifetimes.
//
// # Pointee Types
//
// Because the backing storage is invisible to the garbage collector,
// pointee types must not contain Go pointers (no maps, slices, strings,
// channels, funcs, or pointer fields). Alloc rejects such types.
//
// # Sub-Packages
//
//   - arena: chunked bump allocator for bulk allocation patterns
//   - pool: fixed-size block allocator with a free list
//   - checked: debug allocator that turns contract violations into errors
//   - byteorder: byte-swap and native-endianness helpers
package memgo
