package gc

import "unsafe"

// frameBinding is a mutator-registered span of locals treated as a stack
// frame by the scanner: every slot is read as a candidate pointer at
// scan time (§4.2's conservative semantics), never at push time. It
// stands in for the raw machine stack a C collector would read directly
// — see SPEC_FULL.md's "Go-native redesign decisions" for why that
// substitution is made.
type frameBinding struct {
	id   uint64
	ptrs []*unsafe.Pointer
}

func (fb frameBinding) scan(visit func(uintptr)) {
	for _, slot := range fb.ptrs {
		if slot == nil {
			continue
		}
		visit(uintptr(*slot))
	}
}

// PushFrame registers the given locals as roots for every collection
// that runs until the returned function is called. Call the returned
// function (typically via defer) when the locals it protects go out of
// scope; frames are ordinarily popped in the same LIFO order they were
// pushed, like real stack frames, but popping is identity-based so
// out-of-order use (e.g. a frame kept alive across a child call that
// pushes and pops its own) is harmless.
//
//	defer c.PushFrame(&outer, &inner)()
//
// Each argument must be the address of a variable that currently (or
// may later, before the frame is popped) hold a managed pointer;
// PushFrame reads through the addresses at scan time, not at call time,
// so later writes to *addr are observed by subsequent collections.
func (c *Collector) PushFrame(slots ...*unsafe.Pointer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextFrameID++
	id := c.nextFrameID
	c.frames = append(c.frames, frameBinding{id: id, ptrs: slots})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, fb := range c.frames {
			if fb.id == id {
				c.frames = append(c.frames[:i], c.frames[i+1:]...)
				break
			}
		}
	}
}

// Root tags ptr's block as always-reachable until Unroot is called or
// the collector stops. It is a no-op if ptr is not a tracked block.
func (c *Collector) Root(ptr unsafe.Pointer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return
	}
	if r := c.allocs.get(uintptr(ptr)); r != nil {
		r.tag |= tagRoot
	}
}

// Unroot clears the ROOT tag from ptr's block, if tracked. It is a
// no-op if ptr is not a tracked block or not currently rooted.
func (c *Collector) Unroot(ptr unsafe.Pointer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateRunning {
		return
	}
	if r := c.allocs.get(uintptr(ptr)); r != nil {
		r.tag &^= tagRoot
	}
}
