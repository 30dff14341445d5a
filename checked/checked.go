package checked

import (
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/memgo"
)

// Allocator tracks the state of every allocation it hands out: bounds,
// free state, and which elements currently hold a live value. It is safe
// for concurrent use.
type Allocator struct {
	mu     sync.Mutex
	logger *memgo.Logger
	nextID uint64
	allocs map[uint64]*allocation
}

type allocation struct {
	id      uint64
	base    uintptr
	count   int
	freed   bool
	inited  *roaring.Bitmap // element indexes holding live values
	release func()
}

// Option is a configuration option for Allocator.
type Option func(*Allocator)

// WithLogger sets the logger used to report contract violations.
// By default violations are only returned as errors, not logged.
func WithLogger(logger *memgo.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAllocator creates a new checked allocator.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		logger: memgo.NoopLogger(),
		allocs: make(map[uint64]*allocation),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Leaks returns the number of allocations that have not been freed.
func (a *Allocator) Leaks() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, al := range a.allocs {
		if !al.freed {
			n++
		}
	}
	return n
}

func (a *Allocator) violation(op string, id uint64, idx int, err error) error {
	a.logger.Warn("pointer contract violation",
		"op", op,
		"alloc_id", id,
		"index", idx,
		"error", err,
	)
	return err
}

// resolve validates that the allocation is alive and idx addresses an
// element inside it. Callers hold a.mu.
func (a *Allocator) resolve(op string, id uint64, idx int) (*allocation, error) {
	al, ok := a.allocs[id]
	if !ok {
		return nil, a.violation(op, id, idx, ErrNilDeref)
	}
	if al.freed {
		return nil, a.violation(op, id, idx, ErrUseAfterFree)
	}
	if idx < 0 || idx >= al.count {
		return nil, a.violation(op, id, idx, ErrOutOfBounds)
	}
	return al, nil
}

// Ptr is a checked raw pointer: an allocation identity plus an element
// index. The zero value behaves like a null pointer.
type Ptr[T any] struct {
	a   *Allocator
	id  uint64
	idx int
}

// Alloc reserves count elements of T and returns a checked pointer to the
// first. The storage starts with every element uninitialized.
func Alloc[T any](a *Allocator, count int) (Ptr[T], error) {
	if count <= 0 {
		return Ptr[T]{}, ErrInvalidCount
	}
	if uint64(count) > math.MaxUint32 {
		return Ptr[T]{}, ErrInvalidCount
	}

	raw := memgo.Alloc[T](count)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	id := a.nextID
	a.allocs[id] = &allocation{
		id:      id,
		base:    raw.Addr(),
		count:   count,
		inited:  roaring.New(),
		release: func() { memgo.Free(raw) },
	}

	a.logger.Debug("alloc", "alloc_id", id, "count", count)
	return Ptr[T]{a: a, id: id}, nil
}

// IsNull reports whether the pointer is null.
func (p Ptr[T]) IsNull() bool {
	return p.a == nil
}

// Offset returns a pointer n elements away within the same allocation.
// The result may be out of bounds; this is only reported when it is used.
func (p Ptr[T]) Offset(n int) Ptr[T] {
	return Ptr[T]{a: p.a, id: p.id, idx: p.idx + n}
}

// Index returns the element index relative to the allocation base.
func (p Ptr[T]) Index() int {
	return p.idx
}

// Raw returns the underlying unchecked pointer, for handing memory to code
// that works on memgo.Pointer directly. The checked state tracking does not
// see anything done through the result.
func (p Ptr[T]) Raw() (memgo.Pointer[T], error) {
	if p.a == nil {
		return memgo.Null[T](), ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, err := p.a.resolve("raw", p.id, p.idx)
	if err != nil {
		return memgo.Null[T](), err
	}
	return memgo.FromAddress[T](al.base).Offset(p.idx), nil
}

// Init copy-constructs v into the slot, which must be uninitialized.
func (p Ptr[T]) Init(v T) error {
	if p.a == nil {
		return ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, err := p.a.resolve("init", p.id, p.idx)
	if err != nil {
		return err
	}
	if al.inited.Contains(uint32(p.idx)) {
		return p.a.violation("init", p.id, p.idx, ErrAlreadyInitialized)
	}

	memgo.FromAddress[T](al.base).StoreAt(p.idx, v)
	al.inited.Add(uint32(p.idx))
	return nil
}

// Load reads the slot, which must hold a live value.
func (p Ptr[T]) Load() (T, error) {
	var zero T
	if p.a == nil {
		return zero, ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, err := p.a.resolve("load", p.id, p.idx)
	if err != nil {
		return zero, err
	}
	if !al.inited.Contains(uint32(p.idx)) {
		return zero, p.a.violation("load", p.id, p.idx, ErrUninitialized)
	}

	return memgo.FromAddress[T](al.base).LoadAt(p.idx), nil
}

// Store overwrites the slot. Like deref-assignment in the raw model, the
// slot must already hold a live value: overwriting garbage would run
// teardown on garbage. Use Init for first initialization.
func (p Ptr[T]) Store(v T) error {
	if p.a == nil {
		return ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, err := p.a.resolve("store", p.id, p.idx)
	if err != nil {
		return err
	}
	if !al.inited.Contains(uint32(p.idx)) {
		return p.a.violation("store", p.id, p.idx, ErrUninitialized)
	}

	memgo.FromAddress[T](al.base).StoreAt(p.idx, v)
	return nil
}

// Take moves the value out, leaving the slot uninitialized. The destructor
// is not run; ownership transfers to the caller.
func (p Ptr[T]) Take() (T, error) {
	var zero T
	if p.a == nil {
		return zero, ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, err := p.a.resolve("take", p.id, p.idx)
	if err != nil {
		return zero, err
	}
	if !al.inited.Contains(uint32(p.idx)) {
		return zero, p.a.violation("take", p.id, p.idx, ErrUninitialized)
	}

	raw := memgo.FromAddress[T](al.base).Offset(p.idx)
	v := raw.Take()
	al.inited.Remove(uint32(p.idx))
	return v, nil
}

// Destroy tears down the live value in the slot, leaving it uninitialized.
func (p Ptr[T]) Destroy() error {
	if p.a == nil {
		return ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, err := p.a.resolve("destroy", p.id, p.idx)
	if err != nil {
		return err
	}
	if !al.inited.Contains(uint32(p.idx)) {
		return p.a.violation("destroy", p.id, p.idx, ErrUninitialized)
	}

	memgo.FromAddress[T](al.base).Offset(p.idx).Destroy()
	al.inited.Remove(uint32(p.idx))
	return nil
}

// Free releases the allocation. The pointer must be the allocation base
// (index 0). Elements still initialized at this point are reported to the
// logger as leaks of live values, matching the raw contract that Free never
// runs destructors.
func (p Ptr[T]) Free() error {
	if p.a == nil {
		return ErrNilDeref
	}

	p.a.mu.Lock()
	defer p.a.mu.Unlock()

	al, ok := p.a.allocs[p.id]
	if !ok {
		return p.a.violation("free", p.id, p.idx, ErrNilDeref)
	}
	if al.freed {
		return p.a.violation("free", p.id, p.idx, ErrDoubleFree)
	}
	if p.idx != 0 {
		return p.a.violation("free", p.id, p.idx, ErrForeignPointer)
	}

	if live := al.inited.GetCardinality(); live > 0 {
		p.a.logger.Warn("freeing allocation with live values",
			"alloc_id", p.id,
			"live", live,
		)
	}

	al.freed = true
	al.inited.Clear()
	al.release()

	p.a.logger.Debug("free", "alloc_id", p.id)
	return nil
}
