package gc

import "testing"

func TestOperationsRequireRunningState(t *testing.T) {
	c := New()

	if _, err := c.Alloc(1, 8); err != ErrNotRunning {
		t.Fatalf("Alloc before Start: err = %v, want ErrNotRunning", err)
	}
	if _, err := c.Run(); err != ErrNotRunning {
		t.Fatalf("Run before Start: err = %v, want ErrNotRunning", err)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatal("second Start did not error")
	}

	if _, err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := c.Alloc(1, 8); err != ErrNotRunning {
		t.Fatalf("Alloc after Stop: err = %v, want ErrNotRunning", err)
	}
	if _, err := c.Stop(); err != ErrNotRunning {
		t.Fatalf("second Stop: err = %v, want ErrNotRunning", err)
	}
}

func TestRootUnroot(t *testing.T) {
	c := newStarted(t)

	p, err := c.Alloc(1, 32)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	c.Root(p)

	if _, err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.allocs.get(uintptr(p)) == nil {
		t.Fatal("rooted block was reclaimed")
	}

	c.Unroot(p)
	freed, err := c.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if freed != 32 {
		t.Fatalf("freed = %d after Unroot, want 32", freed)
	}
}
