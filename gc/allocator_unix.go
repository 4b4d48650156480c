//go:build unix

package gc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapAllocator backs managed blocks with anonymous, page-granular
// mappings outside Go's own heap. Addresses are stable for the whole
// lifetime of the mapping (spec.md §1 Non-goals: "moving / compaction")
// by construction, not merely by the current Go runtime's behavior, and
// the memory is invisible to Go's own collector — it never scans it and
// never moves it. This is the default Allocator on unix build targets;
// see allocator.go for the portable fallback used elsewhere.
type mmapAllocator struct{}

func newDefaultAllocator() Allocator { return mmapAllocator{} }

func (mmapAllocator) Alloc(size uintptr) (unsafe.Pointer, any, error) {
	n := pageAlign(size)
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, ErrOutOfMemory
	}
	return unsafe.Pointer(&b[0]), b, nil
}

func (a mmapAllocator) Realloc(ptr unsafe.Pointer, pin any, oldSize, newSize uintptr) (unsafe.Pointer, any, error) {
	old, _ := pin.([]byte)

	oldPages := pageAlign(oldSize)
	newPages := pageAlign(newSize)

	if newPages == oldPages {
		// Fits in the already-mapped pages: same address, size bookkeeping
		// only changes at the record level.
		return ptr, old, nil
	}

	if newPages < oldPages && old != nil {
		// Shrink in place: unix.Munmap only accepts a whole mapping, not a
		// tail slice of one, so the full mapping is kept and released by
		// Free. The base address is unchanged, exercising the "same
		// address" branch of realloc (spec §4.3).
		return ptr, old, nil
	}

	// Growth past the current mapping: mmap does not support portable
	// in-place extension, so this always exercises the "moved" branch.
	newPtr, newPin, err := a.Alloc(newSize)
	if err != nil {
		return nil, nil, err
	}
	if old != nil {
		n := oldSize
		if newSize < n {
			n = newSize
		}
		copy(newPin.([]byte), old[:n])
		_ = unix.Munmap(old)
	}
	return newPtr, newPin, nil
}

func (mmapAllocator) Free(_ unsafe.Pointer, pin any, _ uintptr) {
	if b, ok := pin.([]byte); ok && len(b) > 0 {
		_ = unix.Munmap(b)
	}
}

const pageSize = 4096

func pageAlign(n uintptr) uintptr {
	if n == 0 {
		n = 1
	}
	return (n + pageSize - 1) &^ (pageSize - 1)
}
