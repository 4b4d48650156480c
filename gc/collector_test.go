package gc

import (
	"testing"
	"unsafe"
)

func newStarted(t *testing.T) *Collector {
	t.Helper()
	c := New()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { c.Stop() })
	return c
}

func writeWord(base unsafe.Pointer, offset uintptr, word uintptr) {
	*(*uintptr)(unsafe.Pointer(uintptr(base) + offset)) = word
}

// scenario 1: static root retention (spec.md §8.1).
func TestStaticRootRetention(t *testing.T) {
	c := newStarted(t)

	p, err := c.AllocStatic(1, 256)
	if err != nil {
		t.Fatalf("AllocStatic: %v", err)
	}

	if _, err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.allocs.get(uintptr(p)) == nil {
		t.Fatal("static block was reclaimed")
	}
}

// scenario 2: stack-only retention, via the explicit frame-stack redesign
// documented in SPEC_FULL.md in place of raw stack scanning.
func TestFrameOnlyRetention(t *testing.T) {
	c := newStarted(t)

	var p unsafe.Pointer
	func() {
		var err error
		p, err = c.Alloc(1, 64)
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		}
		pop := c.PushFrame(&p)
		defer pop()

		if _, err := c.Run(); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if c.allocs.get(uintptr(p)) == nil {
			t.Fatal("frame-rooted block was reclaimed while frame was live")
		}
	}()

	p = nil
	freed, err := c.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if freed != 64 {
		t.Fatalf("second Run freed %d bytes, want 64", freed)
	}
}

// scenario 3: transitive marking through a pointer word stored inside a
// reachable block (spec.md §8.3).
func TestTransitiveMarking(t *testing.T) {
	c := newStarted(t)

	outer, err := c.Alloc(1, uintptr(ptrSize))
	if err != nil {
		t.Fatalf("Alloc outer: %v", err)
	}
	inner, err := c.Alloc(1, 32)
	if err != nil {
		t.Fatalf("Alloc inner: %v", err)
	}
	writeWord(outer, 0, uintptr(inner))

	pop := c.PushFrame(&outer)
	defer pop()

	if _, err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.allocs.get(uintptr(outer)) == nil {
		t.Fatal("outer block was reclaimed")
	}
	if c.allocs.get(uintptr(inner)) == nil {
		t.Fatal("inner block reachable only through outer was reclaimed")
	}
}

// scenario 4: finalizer runs exactly once; a second Free of the same
// (now-unknown) pointer is a silent no-op (spec.md §8.4).
func TestFinalizerExactlyOnce(t *testing.T) {
	c := newStarted(t)

	var calls int
	p, err := c.AllocWithFinalizer(1, 16, func(unsafe.Pointer) { calls++ })
	if err != nil {
		t.Fatalf("AllocWithFinalizer: %v", err)
	}

	c.Free(p)
	if calls != 1 {
		t.Fatalf("calls = %d after first Free, want 1", calls)
	}

	c.Free(p) // unknown pointer now; must be ignored, not re-invoke fn
	if calls != 1 {
		t.Fatalf("calls = %d after second Free, want 1", calls)
	}
}

// scenario 5: a realloc that moves the block carries the finalizer to
// the new address (spec.md §8.5).
func TestReallocMovePreservesFinalizer(t *testing.T) {
	c := newStarted(t)

	var calledWith unsafe.Pointer
	p, err := c.AllocWithFinalizer(1, 16, func(ptr unsafe.Pointer) { calledWith = ptr })
	if err != nil {
		t.Fatalf("AllocWithFinalizer: %v", err)
	}

	moved, err := c.Realloc(p, 1<<20) // force a move on the mmap allocator
	if err != nil {
		t.Fatalf("Realloc: %v", err)
	}

	if _, err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if calledWith != moved {
		t.Fatalf("finalizer called with %p, want the moved pointer %p", calledWith, moved)
	}
}

// Round-trip property (spec.md §8): alloc then free of the returned
// pointer leaves size unchanged.
func TestAllocFreeRoundTrip(t *testing.T) {
	c := newStarted(t)
	before := c.allocs.size

	p, err := c.Alloc(1, 128)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	c.Free(p)

	if c.allocs.size != before {
		t.Fatalf("size = %d after alloc+free, want %d", c.allocs.size, before)
	}
}

// Idempotence property: Run() immediately followed by Run() reclaims
// nothing the second time, with no mutator activity between.
func TestRunTwiceIsIdempotent(t *testing.T) {
	c := newStarted(t)

	if _, err := c.AllocStatic(1, 32); err != nil {
		t.Fatalf("AllocStatic: %v", err)
	}

	if _, err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	freed, err := c.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if freed != 0 {
		t.Fatalf("second Run freed %d bytes, want 0", freed)
	}
}

// MARK must never be observably set outside of a collection cycle
// (spec.md §3 invariant, §8 "Unmarking at sweep end").
func TestMarkClearedAfterRun(t *testing.T) {
	c := newStarted(t)

	p, err := c.AllocStatic(1, 32)
	if err != nil {
		t.Fatalf("AllocStatic: %v", err)
	}
	if _, err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r := c.allocs.get(uintptr(p)); r == nil || r.marked() {
		t.Fatal("MARK bit observed set after Run returned")
	}
}

func TestReallocUnknownPointer(t *testing.T) {
	c := newStarted(t)

	var bogus byte
	_, err := c.Realloc(unsafe.Pointer(&bogus), 32)
	if err != ErrUnknownPointer {
		t.Fatalf("Realloc(untracked) = %v, want ErrUnknownPointer", err)
	}
}

func TestFreeUnknownPointerIsNoop(t *testing.T) {
	c := newStarted(t)
	var bogus byte
	c.Free(unsafe.Pointer(&bogus)) // must not panic
}

func TestPauseSuppressesSizeTrigger(t *testing.T) {
	c := newStarted(t)
	c.Pause()
	defer c.Resume()

	for i := uint64(0); i < c.allocs.sweepLimit+10; i++ {
		if _, err := c.Alloc(1, 8); err != nil {
			t.Fatalf("Alloc %d: %v", i, err)
		}
	}

	if c.numCollect != 0 {
		t.Fatalf("numCollect = %d while paused, want 0", c.numCollect)
	}
}

func TestStopInvokesEveryFinalizer(t *testing.T) {
	c := New()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const n = 5
	calls := 0
	for i := 0; i < n; i++ {
		if _, err := c.AllocWithFinalizer(1, 16, func(unsafe.Pointer) { calls++ }); err != nil {
			t.Fatalf("AllocWithFinalizer %d: %v", i, err)
		}
	}

	if _, err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if calls != n {
		t.Fatalf("calls = %d, want %d", calls, n)
	}
}
