// Package arena provides a chunked off-heap bump allocator.
//
// The arena obtains memory in large anonymous mappings and hands out
// aligned slices of it with a lock-free CAS fast path. Individual
// allocations cannot be freed; the whole arena is reclaimed at once with
// Reset or Free. This fits bulk build phases where many small allocations
// share one lifetime.
//
// # Concurrency Model
//
// Concurrent allocation from multiple goroutines is safe. Reset and Free
// are NOT safe to run concurrently with allocations; they wait only for
// readers registered via IncRef/DecRef.
//
// # References
//
// Raw pointers into the arena dangle after Reset/Free. AllocRef returns a
// generation-tagged Ref instead; GetSafe resolves it and reports staleness
// by returning nil.
package arena
