// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// Anonymous mappings obtain read-write memory directly from the OS, outside
// the Go garbage collector's control. This is the backing store for every
// allocation the module hands out: the GC never scans it, never moves it,
// and never frees it behind the caller's back.
//
// # Usage
//
//	m, err := mmap.MapAnon(size)
//	if err != nil { ... }
//	defer m.Close()
//
//	// Raw access to the mapped region
//	data := m.Bytes()
//
//	// Provide kernel hints for access patterns
//	m.Advise(mmap.AccessRandom)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE,
//     madvise(2) for access hints
//   - Windows: VirtualAlloc/VirtualFree (madvise is a no-op)
//
// # Thread Safety
//
// Mappings are safe for concurrent read access. Close is idempotent and
// protected by atomic operations, but callers must ensure no goroutines
// touch Bytes() after Close returns.
package mmap
