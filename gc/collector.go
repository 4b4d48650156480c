// Package gc implements a conservative, tracing, mark-and-sweep garbage
// collector for memory that would otherwise be managed by hand: the
// mutator requests blocks through Alloc/AllocStatic/AllocWithFinalizer,
// and liveness from then on is determined by scanning registered roots
// (ROOT-tagged blocks and explicitly pushed frames, see PushFrame) and
// the tracked heap itself for word-shaped bit patterns that look like
// pointers into managed memory — never by type information.
//
// The GCDEBUG environment variable controls diagnostics the same way
// the real runtime's GODEBUG does; see debug.go.
package gc

import (
	"fmt"
	"sync"
	"unsafe"
)

// state is the singleton's lifecycle: uninitialized -> running ->
// stopped (spec.md §4.3 "State machine"). The running/paused split is a
// sub-state that only affects trigger policy, so it is tracked
// separately as the paused bool rather than as additional states.
type state int32

const (
	stateUninitialized state = iota
	stateRunning
	stateStopped
)

// Collector is the facade (C4): lifecycle, allocation trigger, and
// sweep driver wrapped around an Allocation Index (C2) and Scanner
// (C3). The zero value is not ready to use; call New.
//
// A *Collector is not safe for concurrent use by more than one mutator
// goroutine at a time (spec.md §5's single-mutator assumption) — the
// internal mutex serializes calls so concurrent misuse does not corrupt
// the index; it does not detect or report such misuse as an error, and
// it does not make genuine concurrent mutation supported.
type Collector struct {
	mu sync.Mutex

	state       state
	paused      bool
	allocs      *index
	allocator   Allocator
	frames      []frameBinding
	nextFrameID uint64
	debug       debugOptions

	numCollect uint64
	bytesFreed uint64
	lastBytes  uint64
}

// New returns a Collector in the uninitialized state; call Start before
// any allocation.
func New() *Collector { return &Collector{} }

// Start initializes the collector: the allocation index at its initial
// and minimum capacity, default tuning constants (overridable via
// GCDEBUG, see debug.go), and an unpaused, empty root set. It must be
// called before any managed allocation.
//
// Unlike gc.c's _gc_start(bos), Start takes no stack-bottom sentinel:
// this module's root set is the explicit frame stack (PushFrame) plus
// ROOT-tagged blocks, not the raw machine stack — see SPEC_FULL.md.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateUninitialized {
		return fmt.Errorf("gc: Start called in state %d, want uninitialized", c.state)
	}

	c.debug = parseDebugOptions(envGCDEBUG())
	c.allocs = newIndex(defaultMinCapacity, c.debug.upsizeFactor, c.debug.downsizeFactor, c.debug.sweepFactor)
	c.allocator = newDefaultAllocator()
	c.state = stateRunning
	c.paused = false
	return nil
}

// Pause suspends size- and OOM-triggered collection; Run still collects
// on demand.
func (c *Collector) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

// Resume re-enables size- and OOM-triggered collection.
func (c *Collector) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// Run executes one full mark followed by one sweep and returns the
// total bytes reclaimed, regardless of the paused flag.
func (c *Collector) Run() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return 0, ErrNotRunning
	}
	return c.runCycleLocked("run"), nil
}

// Stop clears ROOT from every record, sweeps everything (nothing is
// rooted and the frame stack is about to be discarded), deletes the
// index, and returns the total bytes reclaimed. The collector moves to
// the stopped state; Start refuses it there, so it cannot be reused.
func (c *Collector) Stop() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return 0, ErrNotRunning
	}

	c.allocs.forEach(func(r *record) { r.tag &^= tagRoot })
	c.frames = nil
	freed := c.sweepLocked()
	c.traceCycle("stop", freed)

	c.allocs = nil
	c.state = stateStopped
	return freed, nil
}

// runCycleLocked performs mark+sweep; caller holds c.mu.
func (c *Collector) runCycleLocked(kind string) uint64 {
	c.mark()
	freed := c.sweepLocked()
	c.numCollect++
	c.bytesFreed += freed
	c.lastBytes = freed
	c.traceCycle(kind, freed)
	return freed
}

// sweepLocked reclaims every unmarked record and clears MARK from the
// rest, then performs a single amortized resize-to-fit (spec.md §4.3
// "Sweep"). Caller holds c.mu.
func (c *Collector) sweepLocked() uint64 {
	var total uint64
	var dead []uintptr

	c.allocs.forEach(func(r *record) {
		if r.marked() {
			r.tag &^= tagMark
			return
		}
		total += uint64(r.size)
		if r.finalize != nil {
			r.finalize(r.ptr())
		}
		c.allocator.Free(r.ptr(), r.pin, r.size)
		dead = append(dead, r.base)
	})

	for _, ptr := range dead {
		c.allocs.remove(ptr, false)
	}
	c.allocs.resizeToFit()
	return total
}

// Alloc requests count*size bytes (or size bytes when count==0) and
// registers them as a managed block. Both Allocator backends (anonymous
// mmap and make([]byte, n)) return zeroed memory, so the count==0
// "uninitialized" case of spec.md §6 is zeroed here too
// — a documented deviation, not a partial implementation.
func (c *Collector) Alloc(count, size uintptr) (unsafe.Pointer, error) {
	return c.allocate(count, size, nil, false)
}

// AllocWithFinalizer is like Alloc, but fn(ptr) runs exactly once
// immediately before the block is reclaimed by a cycle or Free.
func (c *Collector) AllocWithFinalizer(count, size uintptr, fn Finalizer) (unsafe.Pointer, error) {
	return c.allocate(count, size, fn, false)
}

// AllocStatic is like Alloc, but the block is implicitly ROOT-tagged:
// it is never reclaimed until Unroot or Stop.
func (c *Collector) AllocStatic(count, size uintptr) (unsafe.Pointer, error) {
	return c.allocate(count, size, nil, true)
}

func (c *Collector) allocate(count, size uintptr, fin Finalizer, root bool) (unsafe.Pointer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return nil, ErrNotRunning
	}

	if c.allocs.size > c.allocs.sweepLimit && !c.paused {
		c.runCycleLocked("alloc-trigger")
	}

	allocSize := size
	if count != 0 {
		allocSize = count * size
	}

	ptr, pin, err := c.allocator.Alloc(allocSize)
	if err != nil {
		if c.paused {
			return nil, ErrOutOfMemory
		}
		c.runCycleLocked("oom-retry")
		ptr, pin, err = c.allocator.Alloc(allocSize)
		if err != nil {
			return nil, ErrOutOfMemory
		}
	}

	r := c.allocs.put(uintptr(ptr), allocSize, fin, pin)
	if r == nil {
		c.allocator.Free(ptr, pin, allocSize)
		return nil, ErrMetadataAllocation
	}
	if root {
		r.tag |= tagRoot
	}
	return ptr, nil
}

// Realloc resizes the block at ptr to size bytes, per the four cases of
// spec.md §4.3:
//
//   - ptr is non-nil and untracked: ErrUnknownPointer, ptr unchanged.
//   - the raw reallocation fails: the error is returned and the
//     original ptr remains tracked and valid, unchanged.
//   - the raw reallocation keeps the same address: the record's size is
//     updated in place.
//   - the raw reallocation moves the block: the finalizer is carried
//     over to a new record keyed by the new address; the new record is
//     never implicitly ROOT-tagged, matching spec.md's "inherits ROOT
//     state only if re-registered that way".
func (c *Collector) Realloc(ptr unsafe.Pointer, size uintptr) (unsafe.Pointer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return nil, ErrNotRunning
	}

	if ptr == nil {
		newPtr, pin, err := c.allocator.Alloc(size)
		if err != nil {
			return nil, ErrOutOfMemory
		}
		r := c.allocs.put(uintptr(newPtr), size, nil, pin)
		if r == nil {
			c.allocator.Free(newPtr, pin, size)
			return nil, ErrMetadataAllocation
		}
		return newPtr, nil
	}

	r := c.allocs.get(uintptr(ptr))
	if r == nil {
		return nil, ErrUnknownPointer
	}

	newPtr, newPin, err := c.allocator.Realloc(ptr, r.pin, r.size, size)
	if err != nil {
		return nil, ErrOutOfMemory
	}

	if newPtr == ptr {
		r.size = size
		r.pin = newPin
		return ptr, nil
	}

	fin := r.finalize
	c.allocs.remove(uintptr(ptr), true)
	c.allocs.put(uintptr(newPtr), size, fin, newPin)
	return newPtr, nil
}

// Free unconditionally releases ptr: if tracked, its finalizer (if any)
// runs, the raw block is released, and the record is removed with
// resizing permitted. Unknown pointers are silently ignored.
func (c *Collector) Free(ptr unsafe.Pointer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning || ptr == nil {
		return
	}

	r := c.allocs.get(uintptr(ptr))
	if r == nil {
		return
	}
	if r.finalize != nil {
		r.finalize(ptr)
	}
	c.allocator.Free(ptr, r.pin, r.size)
	c.allocs.remove(uintptr(ptr), true)
}
