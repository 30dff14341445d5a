package arena

import (
	"unsafe"

	"github.com/hupe1980/memgo"
)

// AllocAligned allocates size bytes with the given alignment, overriding
// the arena's configured alignment. align must be a power of two.
func (a *Arena) AllocAligned(size, align int) ([]byte, error) {
	if align <= 0 || align&(align-1) != 0 {
		align = a.alignment
	}
	_, bytes, err := a.alloc(size, align)
	return bytes, err
}

// Alloc allocates one element of T from the arena and returns a typed raw
// pointer to it. The memory is zeroed. It is reclaimed in bulk by the
// arena's Reset/Free, never by memgo.Free.
func Alloc[T any](a *Arena) (memgo.Pointer[T], error) {
	return AllocN[T](a, 1)
}

// AllocN allocates n contiguous elements of T from the arena and returns a
// typed raw pointer to the first. The memory is zeroed.
func AllocN[T any](a *Arena, n int) (memgo.Pointer[T], error) {
	if n <= 0 {
		return memgo.Null[T](), nil
	}

	var zero T
	size := n * int(unsafe.Sizeof(zero))
	if size == 0 {
		// Zero-size T still gets a distinct address.
		size = 1
	}
	bytes, err := a.AllocAligned(size, int(unsafe.Alignof(zero)))
	if err != nil {
		return memgo.Null[T](), err
	}

	return memgo.Bitcast[T](memgo.AddressOf(&bytes[0])), nil
}

// AllocSlice allocates a slice of n elements of T from the arena. The
// elements are zeroed. The slice aliases arena memory and dangles after
// Reset/Free.
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	p, err := AllocN[T](a, n)
	if err != nil {
		return nil, err
	}
	return p.Slice(n), nil
}
