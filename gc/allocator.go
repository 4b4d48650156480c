package gc

import "unsafe"

// Allocator is the raw memory collaborator the facade (C4) consumes —
// the only external interface besides a root-set source (§6 "Platform
// allocator dependency"). Implementations must report out-of-memory as
// a distinguishable error rather than panicking.
//
// pin is an opaque value the collector must keep reachable from Go's
// own garbage collector for as long as ptr is tracked; implementations
// backed by Go-heap memory return the retaining value here (typically
// the []byte itself), implementations backed by memory outside Go's
// heap (e.g. mmap) return nil.
type Allocator interface {
	// Alloc returns size zeroed bytes at a stable address.
	Alloc(size uintptr) (ptr unsafe.Pointer, pin any, err error)

	// Realloc resizes the block at ptr (previously pinned by pin) to
	// newSize, preserving min(oldSize, newSize) leading bytes. It may
	// return the same ptr (growth/shrink in place) or a new one.
	Realloc(ptr unsafe.Pointer, pin any, oldSize, newSize uintptr) (newPtr unsafe.Pointer, newPin any, err error)

	// Free releases the block at ptr. size and pin are the values
	// most recently associated with ptr by Alloc/Realloc.
	Free(ptr unsafe.Pointer, pin any, size uintptr)
}

// heapAllocator is the portable fallback: it allocates through Go's own
// heap via make([]byte, n) and pins the slice in the Allocation Record
// so the real Go GC cannot reclaim memory our index still considers
// live. It is the default on platforms without an mmap-backed
// Allocator (see allocator_unix.go).
type heapAllocator struct{}

func (heapAllocator) Alloc(size uintptr) (ptr unsafe.Pointer, pin any, err error) {
	buf, err := safeMake(int(size))
	if err != nil {
		return nil, nil, err
	}
	return unsafe.Pointer(&buf[0]), buf, nil
}

func (heapAllocator) Realloc(_ unsafe.Pointer, pin any, oldSize, newSize uintptr) (unsafe.Pointer, any, error) {
	buf, err := safeMake(int(newSize))
	if err != nil {
		return nil, nil, err
	}
	if old, ok := pin.([]byte); ok {
		n := oldSize
		if newSize < n {
			n = newSize
		}
		copy(buf, old[:n])
	}
	return unsafe.Pointer(&buf[0]), buf, nil
}

func (heapAllocator) Free(unsafe.Pointer, any, uintptr) {
	// Nothing to do: dropping the pin (done by the caller) is enough
	// to let Go's own collector reclaim the backing array.
}

// safeMake turns the only failure mode make() has — a panic when the
// runtime cannot satisfy the request — into an ordinary error, the way
// a raw allocator's OOM return value would surface in C.
func safeMake(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, ErrOutOfMemory
		}
	}()
	if n == 0 {
		n = 1
	}
	buf = make([]byte, n)
	return buf, nil
}
