package memgo

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/hupe1980/memgo/internal/mmap"
)

// allocTable maps the base address of every live allocation to its mapping
// so Free can unmap it. Guarded by allocMu; Alloc/Free are syscall-bound
// anyway, so a single mutex is not a bottleneck.
var (
	allocMu    sync.Mutex
	allocTable = make(map[uintptr]*mmap.Mapping)
)

// Alloc reserves storage for count contiguous elements of T and returns a
// pointer to the first element. The storage lives outside the Go heap and
// is zero-filled by the OS; by the lifecycle contract it is still
// *uninitialized* until Init/InitMove constructs a value in it.
//
// The caller must eventually pass the returned pointer to exactly one Free.
// Alloc panics if T contains Go pointers (the GC cannot see this memory)
// or if the OS refuses the mapping.
func Alloc[T any](count int) Pointer[T] {
	if count <= 0 {
		return Null[T]()
	}
	if typeHasPointers[T]() {
		panic(fmt.Sprintf("memgo: %s contains Go pointers and cannot live off-heap", reflect.TypeOf((*T)(nil)).Elem()))
	}

	size := count * int(sizeOf[T]())
	if size == 0 {
		// Zero-size T still gets a distinct, freeable address.
		size = 1
	}
	m, err := mmap.MapAnon(size)
	if err != nil {
		panic(fmt.Sprintf("memgo: anonymous mapping of %d bytes failed: %v", size, err))
	}

	p := AddressOf(&m.Bytes()[0])
	allocMu.Lock()
	allocTable[p.Addr()] = m
	allocMu.Unlock()

	return Bitcast[T](p)
}

// Free releases storage previously obtained from Alloc. Destructors of
// contained values are NOT run; call Destroy per element first if needed.
//
// The pointer must be exactly the one Alloc returned. Freeing an interior,
// foreign, or already-freed address panics. All pointers derived from the
// allocation dangle after Free returns.
func Free[T any](p Pointer[T]) {
	if p.IsNull() {
		return
	}

	allocMu.Lock()
	m, ok := allocTable[p.Addr()]
	if ok {
		delete(allocTable, p.Addr())
	}
	allocMu.Unlock()

	if !ok {
		panic(fmt.Sprintf("memgo: free of unowned address 0x%x", p.Addr()))
	}
	if err := m.Close(); err != nil {
		panic(fmt.Sprintf("memgo: unmap failed: %v", err))
	}
}

var pointerFreeCache sync.Map // reflect.Type -> bool

// typeHasPointers reports whether T contains anything the garbage collector
// would need to scan. Results are cached per type.
func typeHasPointers[T any]() bool {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := pointerFreeCache.Load(t); ok {
		return v.(bool)
	}
	has := kindHasPointers(t)
	pointerFreeCache.Store(t, has)
	return has
}

func kindHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && kindHasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if kindHasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, maps, slices, strings, chans, funcs, interfaces.
		return true
	}
}
