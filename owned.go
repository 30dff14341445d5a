package memgo

import (
	"sync/atomic"
)

// Owned couples an allocation with the responsibility to free it. It is the
// ownership-tagged layer over the non-owning Pointer primitive: addressing
// stays with Pointer, freeing stays here, exactly once.
//
// Owned implements io.Closer. Close is idempotent.
type Owned[T any] struct {
	p      Pointer[T]
	count  int
	closed atomic.Bool
}

// NewOwned allocates storage for count elements of T and returns the owning
// handle. See Alloc for the allocation contract.
func NewOwned[T any](count int) *Owned[T] {
	return &Owned[T]{
		p:     Alloc[T](count),
		count: count,
	}
}

// Ptr returns the non-owning pointer to the first element. The pointer and
// everything derived from it dangle once Close is called.
func (o *Owned[T]) Ptr() Pointer[T] {
	if o.closed.Load() {
		return Null[T]()
	}
	return o.p
}

// Len returns the number of elements the handle owns.
func (o *Owned[T]) Len() int {
	return o.count
}

// Slice returns a view over all owned elements, or nil once the handle is
// closed.
func (o *Owned[T]) Slice() []T {
	if o.closed.Load() {
		return nil
	}
	return o.p.Slice(o.count)
}

// Close releases the backing storage. It is idempotent; only the first call
// frees. Destructors of contained values are not run.
func (o *Owned[T]) Close() error {
	if o.closed.Swap(true) {
		return nil // Already closed
	}
	Free(o.p)
	return nil
}
