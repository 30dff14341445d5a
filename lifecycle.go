package memgo

// Destructor is implemented by pointee types that need explicit teardown
// when a live value is destroyed. Destroy invokes Destruct on the value in
// place before clearing the slot; Take and Store never do.
type Destructor interface {
	Destruct()
}

// Init copy-constructs v into the memory at the pointer. The slot must be
// uninitialized; initializing over a live value silently drops it without
// running its destructor.
func (p Pointer[T]) Init(v T) {
	p.Store(v)
}

// InitMove moves *src into the memory at the pointer and leaves *src in the
// moved-from state (the zero value). The slot must be uninitialized.
func (p Pointer[T]) InitMove(src *T) {
	p.Store(*src)
	var zero T
	*src = zero
}

// Take moves the pointee out and returns it, leaving the slot
// uninitialized. The destructor is not run: ownership transfers to the
// caller. The slot must hold a live value.
func (p Pointer[T]) Take() T {
	v := p.Load()
	var zero T
	p.Store(zero)
	return v
}

// Destroy tears down the pointee, leaving the slot uninitialized. If the
// pointee (or its address) implements Destructor, Destruct runs in place
// first. The slot must hold a live value.
func (p Pointer[T]) Destroy() {
	if d, ok := any((*T)(p.ptr)).(Destructor); ok {
		d.Destruct()
	}
	var zero T
	p.Store(zero)
}

// Move transfers the value at src into dst, equivalent to
// dst.InitMove of src's pointee. src must be initialized and dst
// uninitialized; if dst held a live value its destructor is skipped.
func Move[T any](src, dst Pointer[T]) {
	dst.Store(src.Load())
	var zero T
	src.Store(zero)
}
