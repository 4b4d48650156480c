package gc

import "unsafe"

// tag is the bit set drawn from {ROOT, MARK} (spec.md §3).
type tag uint8

const (
	tagRoot tag = 1 << iota // always reachable until explicitly unrooted
	tagMark                 // transient per-cycle mark bit
)

// Finalizer is invoked with a block's address exactly once, immediately
// before the block is released. Finalizers must not allocate through
// the collector and must not retain references to other blocks that
// might themselves be unreachable in the same cycle (spec.md §5).
type Finalizer func(ptr unsafe.Pointer)

// record is the Allocation Record (C1): per-block metadata. base
// uniquely identifies the record for its entire lifetime; size bounds
// the scanner's interior scan of the block.
type record struct {
	base     uintptr
	size     uintptr
	tag      tag
	finalize Finalizer
	pin      any // retains Go-heap memory; nil for out-of-heap allocators
	next     *record
}

func (r *record) marked() bool { return r.tag&tagMark != 0 }
func (r *record) rooted() bool { return r.tag&tagRoot != 0 }

func (r *record) ptr() unsafe.Pointer { return unsafe.Pointer(r.base) }
