// Package byteorder provides byte-swap helpers for interpreting
// externally sourced multi-byte integers.
//
// Memory read through a bitcast pointer carries the byte order of whoever
// wrote it. When that order differs from the host's, these helpers convert
// in place of a wire codec: Swap reverses bytes unconditionally, and the
// ToBigEndian/ToLittleEndian pair converts between host order and a fixed
// order. Byte swapping is an involution, so each To function doubles as the
// matching From.
package byteorder

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

// Unsigned covers the fixed-width unsigned kinds that byte swapping is
// defined for.
type Unsigned interface {
	~uint16 | ~uint32 | ~uint64
}

// Swap16 reverses the bytes of a 16-bit integer.
func Swap16(v uint16) uint16 { return bits.ReverseBytes16(v) }

// Swap32 reverses the bytes of a 32-bit integer.
func Swap32(v uint32) uint32 { return bits.ReverseBytes32(v) }

// Swap64 reverses the bytes of a 64-bit integer.
func Swap64(v uint64) uint64 { return bits.ReverseBytes64(v) }

// Swap reverses the bytes of any fixed-width unsigned integer.
func Swap[T Unsigned](v T) T {
	switch unsafe.Sizeof(v) {
	case 2:
		return T(bits.ReverseBytes16(uint16(v)))
	case 4:
		return T(bits.ReverseBytes32(uint32(v)))
	default:
		return T(bits.ReverseBytes64(uint64(v)))
	}
}

// Native returns the host byte order.
func Native() binary.ByteOrder {
	return binary.NativeEndian
}

// IsLittleEndian reports whether the host is little-endian.
func IsLittleEndian() bool {
	probe := [2]byte{0x01, 0x00}
	return binary.NativeEndian.Uint16(probe[:]) == 0x0001
}

// ToBigEndian converts a host-order value to big-endian representation.
// Applying it to a big-endian value converts back to host order.
func ToBigEndian[T Unsigned](v T) T {
	if IsLittleEndian() {
		return Swap(v)
	}
	return v
}

// ToLittleEndian converts a host-order value to little-endian
// representation. Applying it to a little-endian value converts back to
// host order.
func ToLittleEndian[T Unsigned](v T) T {
	if IsLittleEndian() {
		return v
	}
	return Swap(v)
}
