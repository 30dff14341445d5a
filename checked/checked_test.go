package checked

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Lifecycle(t *testing.T) {
	a := NewAllocator()

	p, err := Alloc[int64](a, 4)
	require.NoError(t, err)
	require.False(t, p.IsNull())

	// Reading before initialization is a violation
	_, err = p.Load()
	assert.ErrorIs(t, err, ErrUninitialized)

	// Initialize and read back
	require.NoError(t, p.Init(42))
	v, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// Re-initializing a live slot is a violation
	assert.ErrorIs(t, p.Init(1), ErrAlreadyInitialized)

	// Overwrite through Store is fine once initialized
	require.NoError(t, p.Store(43))
	v, err = p.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(43), v)

	// Take moves the value out and clears the slot
	v, err = p.Take()
	require.NoError(t, err)
	assert.Equal(t, int64(43), v)
	_, err = p.Load()
	assert.ErrorIs(t, err, ErrUninitialized)

	// Store on an uninitialized slot is deref-assignment on garbage
	assert.ErrorIs(t, p.Store(1), ErrUninitialized)

	require.NoError(t, p.Init(7))
	require.NoError(t, p.Destroy())
	_, err = p.Load()
	assert.ErrorIs(t, err, ErrUninitialized)

	require.NoError(t, p.Free())
	assert.Equal(t, 0, a.Leaks())
}

func TestAllocator_Bounds(t *testing.T) {
	a := NewAllocator()

	p, err := Alloc[byte](a, 8)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Free()) }()

	require.NoError(t, p.Offset(7).Init(1))

	assert.ErrorIs(t, p.Offset(8).Init(1), ErrOutOfBounds)
	assert.ErrorIs(t, p.Offset(-1).Init(1), ErrOutOfBounds)
	_, err = p.Offset(100).Load()
	assert.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, p.Offset(7).Destroy())
}

func TestAllocator_FreeErrors(t *testing.T) {
	a := NewAllocator()

	p, err := Alloc[uint32](a, 2)
	require.NoError(t, err)

	// Only the base may be freed
	assert.ErrorIs(t, p.Offset(1).Free(), ErrForeignPointer)

	require.NoError(t, p.Free())
	assert.ErrorIs(t, p.Free(), ErrDoubleFree)

	// Everything after free is use-after-free
	assert.ErrorIs(t, p.Init(1), ErrUseAfterFree)
	_, err = p.Load()
	assert.ErrorIs(t, err, ErrUseAfterFree)
	_, err = p.Raw()
	assert.ErrorIs(t, err, ErrUseAfterFree)
}

func TestAllocator_NullPtr(t *testing.T) {
	var p Ptr[int32]

	assert.True(t, p.IsNull())
	assert.ErrorIs(t, p.Init(1), ErrNilDeref)
	_, err := p.Load()
	assert.ErrorIs(t, err, ErrNilDeref)
	assert.ErrorIs(t, p.Free(), ErrNilDeref)
}

func TestAllocator_InvalidCount(t *testing.T) {
	a := NewAllocator()

	_, err := Alloc[int32](a, 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = Alloc[int32](a, -3)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestAllocator_Leaks(t *testing.T) {
	a := NewAllocator()

	p1, err := Alloc[int64](a, 1)
	require.NoError(t, err)
	p2, err := Alloc[int64](a, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, a.Leaks())
	require.NoError(t, p1.Free())
	assert.Equal(t, 1, a.Leaks())
	require.NoError(t, p2.Free())
	assert.Equal(t, 0, a.Leaks())
}

func TestAllocator_RawEscapeHatch(t *testing.T) {
	a := NewAllocator()

	p, err := Alloc[float32](a, 3)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Free()) }()

	require.NoError(t, p.Init(1.5))

	raw, err := p.Raw()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), raw.Load())
}
