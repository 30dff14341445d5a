package checked

import "errors"

var (
	// ErrNilDeref is returned when dereferencing a null pointer.
	ErrNilDeref = errors.New("checked: nil dereference")
	// ErrOutOfBounds is returned when an element index falls outside the
	// allocation.
	ErrOutOfBounds = errors.New("checked: out of bounds")
	// ErrUninitialized is returned when reading, overwriting, taking, or
	// destroying a slot that holds no live value.
	ErrUninitialized = errors.New("checked: slot not initialized")
	// ErrAlreadyInitialized is returned when initializing a slot that
	// already holds a live value.
	ErrAlreadyInitialized = errors.New("checked: slot already initialized")
	// ErrUseAfterFree is returned when touching a freed allocation.
	ErrUseAfterFree = errors.New("checked: use after free")
	// ErrDoubleFree is returned when freeing an allocation twice.
	ErrDoubleFree = errors.New("checked: double free")
	// ErrForeignPointer is returned when freeing through a pointer that is
	// not the base of its allocation.
	ErrForeignPointer = errors.New("checked: not an allocation base")
	// ErrInvalidCount is returned for non-positive allocation sizes.
	ErrInvalidCount = errors.New("checked: count must be positive")
)
