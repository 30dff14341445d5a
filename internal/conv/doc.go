// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking to prevent integer
// overflow/underflow when converting between signed/unsigned and different
// bit-width integer types. They are used where sizes and offsets cross the
// int/uint64 boundary in allocator bookkeeping.
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
