// Package pool provides a fixed-size off-heap block allocator.
//
// Unlike the arena, which only grows, the pool recycles blocks: Put returns
// a block for a later Get. All blocks have the same element type and live
// in a single contiguous allocation, which makes the pool a good fit for
// high-churn fixed-size records (nodes, entries, slots).
package pool
