package gc

import "unsafe"

const ptrSize = unsafe.Sizeof(uintptr(0))

// mark runs the full mark phase (§4.2): every ROOT-tagged record, then
// every frame pushed via PushFrame, is added to an explicit worklist and
// marked transitively. Marking is idempotent and insensitive to visit
// order, so the worklist may linearize the recursive definition in
// spec.md however is convenient — here, as a LIFO stack.
func (c *Collector) mark() {
	var work []uintptr

	c.allocs.forEach(func(r *record) {
		if r.rooted() {
			work = append(work, r.base)
		}
	})

	for _, fb := range c.frames {
		fb.scan(func(candidate uintptr) {
			work = append(work, candidate)
		})
	}

	for len(work) > 0 {
		n := len(work) - 1
		ptr := work[n]
		work = work[:n]

		r := c.allocs.get(ptr)
		if r == nil || r.marked() {
			continue
		}
		r.tag |= tagMark

		scanBlock(r.base, r.size, func(candidate uintptr) {
			work = append(work, candidate)
		})
	}
}

// scanBlock reads a candidate word at every byte offset in
// [base, base+size-wordSize], per spec.md §4.2's unaligned conservative
// scan: pointers may live in packed layouts not aligned to word
// boundaries, so every offset — not just every wordSize-th one — is
// tried.
func scanBlock(base, size uintptr, visit func(uintptr)) {
	if size < ptrSize {
		return
	}
	last := size - ptrSize
	for i := uintptr(0); i <= last; i++ {
		p := unsafe.Pointer(base + i)
		visit(*(*uintptr)(p))
	}
}
