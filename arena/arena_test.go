package arena

import (
	"sync/atomic"
	"testing"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

func TestArena_New(t *testing.T) {
	t.Run("default chunk size", func(t *testing.T) {
		a, err := New(0)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		if a.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize=%d, got %d", DefaultChunkSize, a.chunkSize)
		}
		if a.alignment != DefaultAlignment {
			t.Errorf("expected alignment=%d, got %d", DefaultAlignment, a.alignment)
		}
		if a.current.Load() == nil {
			t.Error("current chunk should not be nil")
		}
	})

	t.Run("chunk size rounded to power of two", func(t *testing.T) {
		a, err := New(5000)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		if a.chunkSize != 8192 {
			t.Errorf("expected chunkSize=8192, got %d", a.chunkSize)
		}
	})

	t.Run("custom alignment", func(t *testing.T) {
		a, err := New(4096, WithAlignment(64))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		b, err := a.AllocBytes(3)
		if err != nil {
			t.Fatalf("AllocBytes failed: %v", err)
		}
		addr := uintptr(unsafe.Pointer(&b[0]))
		if addr%64 != 0 {
			t.Errorf("address %x not 64-byte aligned", addr)
		}
	})
}

func TestArena_AllocBytes(t *testing.T) {
	t.Run("basic allocation", func(t *testing.T) {
		a, err := New(4096)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		slice, err := a.AllocBytes(100)
		if err != nil {
			t.Fatalf("AllocBytes failed: %v", err)
		}
		if len(slice) < 100 {
			t.Errorf("expected length>=100, got %d", len(slice))
		}

		// Anonymous mappings are zero-filled
		for i, b := range slice {
			if b != 0 {
				t.Errorf("byte at index %d not zero: %d", i, b)
			}
		}
	})

	t.Run("zero size", func(t *testing.T) {
		a, err := New(4096)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		slice, err := a.AllocBytes(0)
		if err != nil {
			t.Fatalf("AllocBytes failed: %v", err)
		}
		if slice != nil {
			t.Error("expected nil for zero size")
		}
	})

	t.Run("alignment", func(t *testing.T) {
		a, err := New(4096)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		sizes := []int{1, 3, 5, 7, 9, 15, 17}
		for _, size := range sizes {
			slice, err := a.AllocBytes(size)
			if err != nil {
				t.Fatalf("allocation failed for size=%d: %v", size, err)
			}

			ptr := uintptr(unsafe.Pointer(&slice[0]))
			if ptr%uintptr(DefaultAlignment) != 0 {
				t.Errorf("size=%d ptr=%x not aligned", size, ptr)
			}
		}
	})

	t.Run("multiple chunks", func(t *testing.T) {
		a, err := New(4096)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		for i := 0; i < 10; i++ {
			if _, err := a.AllocBytes(1024); err != nil {
				t.Fatalf("allocation %d failed: %v", i, err)
			}
		}

		stats := a.Stats()
		if stats.ChunksAllocated <= 1 {
			t.Error("expected multiple chunks")
		}
	})
}

func TestArena_Get(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Free()

	offset, data, err := a.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}

	data[0] = 0xAB
	got := *(*byte)(a.Get(offset))
	if got != 0xAB {
		t.Errorf("expected 0xAB, got 0x%X", got)
	}
}

func TestArena_Refs(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Free()

	ref, err := a.AllocRef(16)
	if err != nil {
		t.Fatalf("AllocRef failed: %v", err)
	}
	if ref.Gen != a.Generation() {
		t.Errorf("expected gen %d, got %d", a.Generation(), ref.Gen)
	}
	if a.GetSafe(ref) == nil {
		t.Error("GetSafe returned nil for live ref")
	}

	a.Reset()

	if a.GetSafe(ref) != nil {
		t.Error("GetSafe should return nil after Reset")
	}
}

func TestArena_Reset(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Free()

	for i := 0; i < 10; i++ {
		if _, err := a.AllocBytes(1024); err != nil {
			t.Fatalf("allocation failed: %v", err)
		}
	}

	a.Reset()

	stats := a.Stats()
	if stats.ActiveChunks != 1 {
		t.Errorf("expected 1 active chunk after reset, got %d", stats.ActiveChunks)
	}
	if stats.BytesUsed != 0 {
		t.Errorf("expected 0 bytes used after reset, got %d", stats.BytesUsed)
	}

	// Arena is reusable after Reset
	if _, err := a.AllocBytes(64); err != nil {
		t.Fatalf("allocation after reset failed: %v", err)
	}
}

func TestArena_FreeClosesArena(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.Free()

	if _, err := a.AllocBytes(8); err == nil {
		t.Error("expected error allocating from freed arena")
	}
}

func TestArena_ConcurrentAlloc(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Free()

	var total atomic.Int64
	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				b, err := a.AllocBytes(32)
				if err != nil {
					return err
				}
				b[0] = 1
				total.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent alloc failed: %v", err)
	}

	if total.Load() != 8*200 {
		t.Errorf("expected %d allocations, got %d", 8*200, total.Load())
	}
}

func TestArena_MixedAlignment(t *testing.T) {
	t.Run("typed after odd byte run", func(t *testing.T) {
		a, err := New(4096)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		// Leave the bump offset on an odd boundary, then request a type
		// with stricter alignment. The start must be re-aligned.
		if _, err := AllocN[byte](a, 3); err != nil {
			t.Fatalf("AllocN[byte] failed: %v", err)
		}
		p, err := AllocN[uint64](a, 1)
		if err != nil {
			t.Fatalf("AllocN[uint64] failed: %v", err)
		}
		if p.Addr()%uintptr(unsafe.Alignof(uint64(0))) != 0 {
			t.Errorf("uint64 pointer misaligned: addr=0x%x", p.Addr())
		}
		p.Store(0xDEADBEEF)
		if p.Load() != 0xDEADBEEF {
			t.Errorf("readback mismatch: 0x%x", p.Load())
		}
	})

	t.Run("interleaved alignments", func(t *testing.T) {
		a, err := New(4096, WithAlignment(1))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		for i := 0; i < 32; i++ {
			if _, err := AllocN[byte](a, 1+i%3); err != nil {
				t.Fatalf("AllocN[byte] failed: %v", err)
			}
			p32, err := AllocN[uint32](a, 1)
			if err != nil {
				t.Fatalf("AllocN[uint32] failed: %v", err)
			}
			if p32.Addr()%4 != 0 {
				t.Fatalf("uint32 pointer misaligned: addr=0x%x", p32.Addr())
			}
			p64, err := AllocN[uint64](a, 2)
			if err != nil {
				t.Fatalf("AllocN[uint64] failed: %v", err)
			}
			if p64.Addr()%8 != 0 {
				t.Fatalf("uint64 pointer misaligned: addr=0x%x", p64.Addr())
			}
		}
	})

	t.Run("padding counted as waste", func(t *testing.T) {
		a, err := New(4096, WithAlignment(1))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer a.Free()

		if _, err := a.AllocBytes(1); err != nil {
			t.Fatalf("AllocBytes failed: %v", err)
		}
		before := a.Stats().BytesWasted
		if _, err := a.AllocAligned(8, 64); err != nil {
			t.Fatalf("AllocAligned failed: %v", err)
		}
		if a.Stats().BytesWasted <= before {
			t.Error("alignment padding not recorded in stats")
		}
	})
}

func TestAllocTyped(t *testing.T) {
	a, err := New(4096)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Free()

	type point struct {
		X, Y int32
	}

	p, err := Alloc[point](a)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	p.Store(point{X: 3, Y: 4})
	if got := p.Load(); got.X != 3 || got.Y != 4 {
		t.Errorf("unexpected value: %+v", got)
	}

	s, err := AllocSlice[uint32](a, 16)
	if err != nil {
		t.Fatalf("AllocSlice failed: %v", err)
	}
	if len(s) != 16 {
		t.Fatalf("expected len 16, got %d", len(s))
	}
	for i := range s {
		s[i] = uint32(i)
	}
	if s[15] != 15 {
		t.Errorf("expected 15, got %d", s[15])
	}
}
