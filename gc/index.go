package gc

import "github.com/dwminer/armorcore/gc/internal/prime"

// Tuning constants for the Allocation Index (C2), defaults per spec.md §3.
const (
	defaultUpsizeFactor   = 0.8
	defaultDownsizeFactor = 0.2
	defaultSweepFactor    = 0.5
	defaultMinCapacity    = 1024

	// hashShift removes the low bits guaranteed zero by allocation
	// alignment (spec.md §4.1 "Hash function"); 3 bits covers 8-byte
	// alignment, the common case for both the mmap and heap allocators.
	hashShift = 3
)

// index is the Allocation Index (C2): a separate-chaining hash table
// from base address to *record, with adaptive resizing and a
// size-driven sweep trigger.
type index struct {
	buckets     []*record
	capacity    uint64
	minCapacity uint64
	size        uint64
	sweepLimit  uint64

	upsizeFactor   float64
	downsizeFactor float64
	sweepFactor    float64
}

func newIndex(minCapacity uint64, upsize, downsize, sweep float64) *index {
	capacity := prime.Next(minCapacity)
	idx := &index{
		buckets:        make([]*record, capacity),
		capacity:       capacity,
		minCapacity:    capacity,
		upsizeFactor:   upsize,
		downsizeFactor: downsize,
		sweepFactor:    sweep,
	}
	idx.rederiveSweepLimit()
	return idx
}

func hash(ptr uintptr) uint64 { return uint64(ptr) >> hashShift }

func (idx *index) bucketFor(ptr uintptr) uint64 { return hash(ptr) % idx.capacity }

func (idx *index) rederiveSweepLimit() {
	idx.sweepLimit = idx.size + uint64(idx.sweepFactor*float64(idx.capacity-idx.size))
}

// get returns the record tracking ptr, or nil.
func (idx *index) get(ptr uintptr) *record {
	for cur := idx.buckets[idx.bucketFor(ptr)]; cur != nil; cur = cur.next {
		if cur.base == ptr {
			return cur
		}
	}
	return nil
}

// put upserts a record for ptr. An existing record for the same base is
// updated in place (preserving its position in the chain) and its tag
// reset, mirroring gc.c's gc_allocation_map_put "dtor update" behavior.
// A brand new record is inserted at the head of its bucket.
func (idx *index) put(ptr uintptr, size uintptr, fin Finalizer, pin any) *record {
	b := idx.bucketFor(ptr)
	for cur := idx.buckets[b]; cur != nil; cur = cur.next {
		if cur.base == ptr {
			cur.size = size
			cur.finalize = fin
			cur.pin = pin
			cur.tag = 0
			return cur
		}
	}

	r := &record{base: ptr, size: size, finalize: fin, pin: pin, next: idx.buckets[b]}
	idx.buckets[b] = r
	idx.size++

	if idx.resizeToFit() {
		return idx.get(ptr)
	}
	return r
}

// remove unlinks and discards the record for ptr, if present. When
// allowResize is set and the load factor has dropped below
// downsizeFactor, the table shrinks.
func (idx *index) remove(ptr uintptr, allowResize bool) {
	b := idx.bucketFor(ptr)
	var prev *record
	for cur := idx.buckets[b]; cur != nil; cur = cur.next {
		if cur.base == ptr {
			if prev == nil {
				idx.buckets[b] = cur.next
			} else {
				prev.next = cur.next
			}
			idx.size--
			break
		}
		prev = cur
	}
	if allowResize {
		idx.resizeToFit()
	}
}

// resizeToFit grows or shrinks the table to restore the load factor to
// [downsizeFactor, upsizeFactor]. It returns true whenever the load
// factor was outside that range, including when resize declines to
// shrink below minCapacity and the capacity stays the same.
func (idx *index) resizeToFit() bool {
	loadFactor := float64(idx.size) / float64(idx.capacity)
	switch {
	case loadFactor > idx.upsizeFactor:
		idx.resize(prime.Next(idx.capacity * 2))
		return true
	case loadFactor < idx.downsizeFactor:
		idx.resize(prime.Next(idx.capacity / 2))
		return true
	}
	return false
}

func (idx *index) resize(newCapacity uint64) {
	if newCapacity < idx.minCapacity {
		return
	}
	resized := make([]*record, newCapacity)
	for _, head := range idx.buckets {
		for cur := head; cur != nil; {
			next := cur.next
			b := hash(cur.base) % newCapacity
			cur.next = resized[b]
			resized[b] = cur
			cur = next
		}
	}
	idx.buckets = resized
	idx.capacity = newCapacity
	idx.rederiveSweepLimit()
}

// forEach walks every live record, in bucket-chain order. Callers must
// not rely on this order (spec.md §5 "Ordering").
func (idx *index) forEach(fn func(*record)) {
	for _, head := range idx.buckets {
		for cur := head; cur != nil; cur = cur.next {
			fn(cur)
		}
	}
}
