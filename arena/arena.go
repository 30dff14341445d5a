package arena

import (
	"errors"
	"fmt"
	"math/bits"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/memgo/internal/conv"
	"github.com/hupe1980/memgo/internal/mmap"
)

var (
	// ErrMaxChunksExceeded is returned when the arena exceeds the maximum number of chunks.
	ErrMaxChunksExceeded = errors.New("arena: max chunks exceeded")
	// ErrClosed is returned when allocating from a freed arena.
	ErrClosed = errors.New("arena: closed")
)

const (
	// DefaultChunkSize is the default size of a chunk (1MB).
	DefaultChunkSize = 1024 * 1024
	// DefaultAlignment is the default memory alignment (8 bytes).
	DefaultAlignment = 8
	// MaxChunks limits the number of chunks to prevent excessive memory usage.
	MaxChunks = 65536
)

// Stats tracks arena memory usage metrics.
//
// Note on semantics:
//   - BytesReserved: total memory reserved from the OS
//   - BytesUsed: actual bytes requested by allocations (before alignment)
//   - BytesWasted: padding added for alignment
//   - ActiveChunks: number of chunks currently held
//   - TotalAllocs: cumulative allocation count
type Stats struct {
	ChunksAllocated uint64 // Historical: total chunks ever created
	BytesReserved   uint64
	BytesUsed       uint64
	BytesWasted     uint64
	ActiveChunks    uint64
	TotalAllocs     uint64 // Historical: total allocations
}

// Ref is a stable reference to an arena allocation. It carries the arena
// generation so stale references can be detected after Reset or Free.
type Ref struct {
	Gen    uint32
	Offset uint64
}

type atomicStats struct {
	ChunksAllocated atomic.Uint64
	BytesReserved   atomic.Uint64
	BytesUsed       atomic.Uint64
	BytesWasted     atomic.Uint64
	ActiveChunks    atomic.Uint64
	TotalAllocs     atomic.Uint64
}

type chunk struct {
	data    []byte
	mapping *mmap.Mapping
	offset  atomic.Int64 // MUST be atomic - accessed concurrently without locks
	index   uint32
}

// Arena is a chunked bump allocator over anonymous mappings. Allocations
// are lock-free on the fast path; chunk growth takes a mutex. Individual
// allocations cannot be freed: memory is reclaimed in bulk by Reset or Free.
type Arena struct {
	chunkSize  int
	chunkBits  int    // Power of 2 exponent for chunk size
	chunkMask  uint64 // Mask for offset within chunk
	alignment  int
	chunks     [MaxChunks]atomic.Pointer[chunk]
	chunkCount atomic.Uint32
	current    atomic.Pointer[chunk]
	mu         sync.Mutex
	stats      atomicStats
	refs       atomic.Int64
	generation atomic.Uint32
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithAlignment sets the alignment applied to every allocation.
// Must be a power of two; invalid values fall back to the default.
func WithAlignment(align int) Option {
	return func(a *Arena) {
		if align > 0 && align&(align-1) == 0 {
			a.alignment = align
		}
	}
}

// New creates a new Arena. chunkSize is rounded up to the next power of
// two; a non-positive value selects DefaultChunkSize.
func New(chunkSize int, opts ...Option) (*Arena, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	// Round up to next power of 2 for efficient bitwise addressing.
	chunkBits := bits.Len(uint(chunkSize - 1))
	chunkSize = 1 << chunkBits
	chunkMask, err := conv.IntToUint64(chunkSize - 1)
	if err != nil {
		return nil, err
	}

	a := &Arena{
		chunkSize: chunkSize,
		chunkBits: chunkBits,
		chunkMask: chunkMask,
		alignment: DefaultAlignment,
	}

	for _, opt := range opts {
		opt(a)
	}

	// Initialize generation to 1 so 0 is invalid
	a.generation.Store(1)

	if err := a.allocateChunk(); err != nil {
		return nil, err
	}
	// Reserve offset 0 as null
	if _, _, err := a.Alloc(1); err != nil {
		return nil, err
	}
	return a, nil
}

// IncRef marks the start of a long-running operation that reads arena
// memory. Free and Reset wait until the count drops to zero.
func (a *Arena) IncRef() {
	a.refs.Add(1)
}

// DecRef releases a reference taken with IncRef.
func (a *Arena) DecRef() {
	a.refs.Add(-1)
}

// Generation returns the current generation of the arena.
func (a *Arena) Generation() uint32 {
	return a.generation.Load()
}

// GetSafe returns a pointer to the data at the given reference.
// It validates the generation and returns nil if the reference is stale.
func (a *Arena) GetSafe(ref Ref) unsafe.Pointer {
	if ref.Gen != a.generation.Load() {
		return nil
	}
	return a.Get(ref.Offset)
}

func (a *Arena) allocateChunk() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocateChunkLocked()
}

func (a *Arena) allocateChunkLocked() error {
	idx := a.chunkCount.Load()
	if idx >= MaxChunks {
		return ErrMaxChunksExceeded
	}

	// Off-heap anonymous mapping: no GC pressure, stable addresses.
	mapping, err := mmap.MapAnon(a.chunkSize)
	if err != nil {
		return fmt.Errorf("failed to map anonymous memory for chunk: %w", err)
	}

	newChunk := &chunk{
		data:    mapping.Bytes()[:a.chunkSize],
		mapping: mapping,
		index:   idx,
	}

	// Get() is lock-free, so the chunk pointer must be published atomically
	// even though growth itself is serialized by mu.
	a.chunks[idx].Store(newChunk)

	a.stats.ChunksAllocated.Add(1)
	chunkSizeU64, _ := conv.IntToUint64(a.chunkSize)
	a.stats.BytesReserved.Add(chunkSizeU64)
	a.stats.ActiveChunks.Add(1)

	// Count must be visible before current so Get() accepts offsets from
	// the new chunk as soon as Alloc can return them.
	a.chunkCount.Add(1)
	a.current.Store(newChunk)

	return nil
}

// Alloc allocates size bytes and returns the global offset and the byte
// slice. The offset can be resolved with Get later.
func (a *Arena) Alloc(size int) (uint64, []byte, error) {
	return a.alloc(size, a.alignment)
}

func (a *Arena) alloc(size int, align int) (uint64, []byte, error) {
	if size <= 0 {
		return 0, nil, nil
	}

	for {
		curr := a.current.Load()
		if curr == nil {
			return 0, nil, ErrClosed
		}

		offset, data, ok, err := a.tryAllocInChunk(curr, size, align)
		if err != nil {
			return 0, nil, err
		}
		if ok {
			return offset, data, nil
		}

		// Current chunk is full. If another goroutine already swapped in a
		// fresh one, retry against it; otherwise grow under the lock.
		if a.current.Load() != curr {
			continue
		}

		a.mu.Lock()
		if a.current.Load() != curr {
			a.mu.Unlock()
			continue
		}

		if err := a.allocateChunkLocked(); err != nil {
			a.mu.Unlock()
			return 0, nil, err
		}
		a.mu.Unlock()
	}
}

func (a *Arena) tryAllocInChunk(curr *chunk, size, align int) (uint64, []byte, bool, error) {
	// Align the start offset, not just the size: allocations with mixed
	// alignments must each begin on their own alignment boundary.
	mask := int64(align - 1)
	oldOffset := curr.offset.Load()
	start := (oldOffset + mask) &^ mask
	newOffset := start + int64(size)

	if newOffset > int64(len(curr.data)) {
		return 0, nil, false, nil
	}

	if !curr.offset.CompareAndSwap(oldOffset, newOffset) {
		return 0, nil, false, nil
	}

	sizeU64, _ := conv.IntToUint64(size)
	a.stats.BytesUsed.Add(sizeU64)
	padU64, _ := conv.Int64ToUint64(start - oldOffset)
	a.stats.BytesWasted.Add(padU64)
	a.stats.TotalAllocs.Add(1)

	// GlobalOffset = (ChunkIndex << ChunkBits) | ChunkOffset
	startU64, err := conv.Int64ToUint64(start)
	if err != nil {
		return 0, nil, false, err
	}
	if startU64 > a.chunkMask {
		return 0, nil, false, fmt.Errorf("arena: offset exceeds chunk mask")
	}
	globalOffset := (uint64(curr.index) << a.chunkBits) | startU64
	return globalOffset, curr.data[start:newOffset:newOffset], true, nil
}

// Get returns an unsafe.Pointer to the memory at the given global offset.
// It panics on offsets outside any allocated chunk; within a chunk no
// bounds checking is performed.
func (a *Arena) Get(offset uint64) unsafe.Pointer {
	chunkIdx := offset >> a.chunkBits
	chunkOffset := offset & a.chunkMask

	if chunkIdx >= uint64(a.chunkCount.Load()) {
		panic("arena: stale offset")
	}

	c := a.chunks[chunkIdx].Load()
	if c == nil {
		panic("arena: chunk is nil")
	}

	return unsafe.Add(unsafe.Pointer(&c.data[0]), chunkOffset) //nolint:gosec // unsafe is required for arena addressing
}

// AllocBytes allocates a byte slice of the given size.
func (a *Arena) AllocBytes(size int) ([]byte, error) {
	_, bytes, err := a.Alloc(size)
	return bytes, err
}

// AllocRef allocates size bytes and returns a generation-tagged reference.
func (a *Arena) AllocRef(size int) (Ref, error) {
	offset, _, err := a.Alloc(size)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Gen: a.generation.Load(), Offset: offset}, nil
}

// Stats returns the current arena statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		ChunksAllocated: a.stats.ChunksAllocated.Load(),
		BytesReserved:   a.stats.BytesReserved.Load(),
		BytesUsed:       a.stats.BytesUsed.Load(),
		BytesWasted:     a.stats.BytesWasted.Load(),
		ActiveChunks:    a.stats.ActiveChunks.Load(),
		TotalAllocs:     a.stats.TotalAllocs.Load(),
	}
}

// Free releases all arena memory back to the OS.
//
// IMPORTANT:
//  1. Do NOT call Free concurrently with allocations
//  2. All pointers and slices obtained from this arena dangle after Free
//  3. Typical usage: defer a.Free() or call in Close() method
//
// After Free(), the arena cannot be reused. Create a new arena instead.
func (a *Arena) Free() {
	// Wait for references to drop
	for a.refs.Load() > 0 {
		runtime.Gosched()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Increment generation to invalidate old references
	a.generation.Add(1)

	count := a.chunkCount.Load()
	countInt, _ := conv.Uint32ToInt(count) // Safe: count <= MaxChunks
	for i := 0; i < countInt; i++ {
		c := a.chunks[i].Load()
		if c != nil && c.mapping != nil {
			_ = c.mapping.Close()
		}
		a.chunks[i].Store(nil)
	}
	a.chunkCount.Store(0)
	a.current.Store(nil)

	a.stats.ActiveChunks.Store(0)
	a.stats.BytesReserved.Store(0)
	a.stats.BytesUsed.Store(0)
	a.stats.BytesWasted.Store(0)
}

// Reset clears all allocations and releases extra chunks, keeping only the
// first chunk for reuse.
//
// IMPORTANT:
//  1. Do NOT call Reset concurrently with allocations
//  2. All pointers and slices obtained before Reset become invalid
//
// Reset is more efficient than Free + New when the arena is reused across
// independent build phases.
func (a *Arena) Reset() {
	// Wait for references to drop
	for a.refs.Load() > 0 {
		runtime.Gosched()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Increment generation to invalidate old references
	a.generation.Add(1)

	count := a.chunkCount.Load()
	if count > 0 {
		firstChunk := a.chunks[0].Load()
		firstChunk.offset.Store(0)

		countInt, _ := conv.Uint32ToInt(count) // Safe: count <= MaxChunks
		for i := 1; i < countInt; i++ {
			c := a.chunks[i].Load()
			if c != nil && c.mapping != nil {
				_ = c.mapping.Close()
			}
			a.chunks[i].Store(nil)
		}
		a.chunkCount.Store(1)
		a.current.Store(firstChunk)

		a.stats.ActiveChunks.Store(1)
		chunkSizeU64, _ := conv.IntToUint64(a.chunkSize)
		a.stats.BytesReserved.Store(chunkSizeU64)
	}

	// Historical counts (ChunksAllocated/TotalAllocs) are kept.
	a.stats.BytesUsed.Store(0)
	a.stats.BytesWasted.Store(0)
}

// Usage returns the memory usage percentage.
func (a *Arena) Usage() float64 {
	stats := a.Stats()
	if stats.BytesReserved == 0 {
		return 0
	}
	return float64(stats.BytesUsed) / float64(stats.BytesReserved) * 100
}

func (a *Arena) String() string {
	stats := a.Stats()
	return fmt.Sprintf(
		"Arena{chunks: %d, reserved: %.2f MB, used: %.2f MB, wasted: %.2f KB, usage: %.1f%%, allocs: %d}",
		stats.ActiveChunks,
		float64(stats.BytesReserved)/(1024*1024),
		float64(stats.BytesUsed)/(1024*1024),
		float64(stats.BytesWasted)/1024,
		a.Usage(),
		stats.TotalAllocs,
	)
}
