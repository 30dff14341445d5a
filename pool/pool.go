package pool

import (
	"errors"
	"sync"

	"github.com/hupe1980/memgo"
)

var (
	// ErrExhausted is returned when no free blocks remain.
	ErrExhausted = errors.New("pool: exhausted")
	// ErrForeignPointer is returned when a pointer does not address a block
	// of this pool.
	ErrForeignPointer = errors.New("pool: foreign pointer")
	// ErrDoublePut is returned when a block is returned twice.
	ErrDoublePut = errors.New("pool: block already free")
	// ErrClosed is returned when operating on a closed pool.
	ErrClosed = errors.New("pool: closed")
)

// Pool is a fixed-capacity block allocator for elements of T. All blocks
// live in one contiguous off-heap allocation; Get and Put recycle them
// through a free list. Blocks are zeroed when returned, so Get always hands
// out memory in the uninitialized (zero) state.
//
// Pool is safe for concurrent use.
type Pool[T any] struct {
	mu       sync.Mutex
	owned    *memgo.Owned[T]
	base     memgo.Pointer[T]
	capacity int
	freeList []int
	inUse    []bool
	closed   bool
}

// New creates a pool with the given number of blocks.
func New[T any](capacity int) (*Pool[T], error) {
	if capacity <= 0 {
		return nil, errors.New("pool: capacity must be positive")
	}

	owned := memgo.NewOwned[T](capacity)

	p := &Pool[T]{
		owned:    owned,
		base:     owned.Ptr(),
		capacity: capacity,
		freeList: make([]int, capacity),
		inUse:    make([]bool, capacity),
	}
	// LIFO free list: lowest index on top for locality.
	for i := 0; i < capacity; i++ {
		p.freeList[i] = capacity - 1 - i
	}
	return p, nil
}

// Get hands out a pointer to a free block. The block's memory is zeroed.
func (p *Pool[T]) Get() (memgo.Pointer[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return memgo.Null[T](), ErrClosed
	}
	if len(p.freeList) == 0 {
		return memgo.Null[T](), ErrExhausted
	}

	idx := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	p.inUse[idx] = true

	return p.base.Offset(idx), nil
}

// Put returns a block to the pool and zeroes it. The pointer must be one
// previously handed out by Get.
func (p *Pool[T]) Put(ptr memgo.Pointer[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	idx := memgo.Diff(ptr, p.base)
	if idx < 0 || idx >= p.capacity || p.base.Offset(idx).Addr() != ptr.Addr() {
		return ErrForeignPointer
	}
	if !p.inUse[idx] {
		return ErrDoublePut
	}

	ptr.Clear(1)
	p.inUse[idx] = false
	p.freeList = append(p.freeList, idx)
	return nil
}

// Available returns the number of free blocks.
func (p *Pool[T]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.freeList)
}

// Cap returns the total number of blocks.
func (p *Pool[T]) Cap() int {
	return p.capacity
}

// Close releases the backing storage. All pointers handed out by the pool
// dangle afterwards. Close is idempotent.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.owned.Close()
}
