// Package checked provides a debug-mode allocator that detects pointer
// contract violations.
//
// The raw memgo API trades safety for zero overhead: null dereference,
// use-after-free, double free, and uninitialized reads are undefined
// behavior. This package wraps the same operations with full state
// tracking — allocation bounds, per-element initialization, free state —
// and reports every violation as an error instead.
//
//	a := checked.NewAllocator()
//	p, _ := checked.Alloc[float32](a, 6)
//
//	_, err := p.Load()            // ErrUninitialized
//	err = p.Init(1.0)             // ok
//	err = p.Init(2.0)             // ErrAlreadyInitialized
//	err = p.Offset(6).Init(3.0)   // ErrOutOfBounds
//
// Initialization state is tracked per element in a roaring bitmap, so large
// sparse allocations stay cheap. Violations are additionally logged through
// the configured memgo.Logger before being returned.
//
// The intended use is tests and debug builds: develop against checked,
// ship against memgo.
package checked
