package gc

import (
	"expvar"
	"sort"
)

// Stats is a point-in-time snapshot of the collector's bookkeeping,
// analogous to runtime's mstats but scoped to what this collector
// actually tracks (spec.md has no generational/incremental state to
// report).
type Stats struct {
	Capacity   uint64
	Size       uint64
	SweepLimit uint64
	NumCollect uint64
	BytesFreed uint64
	LastBytes  uint64
}

// Stats returns a snapshot of the collector's current bookkeeping.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Capacity:   c.allocs.capacity,
		Size:       c.allocs.size,
		SweepLimit: c.allocs.sweepLimit,
		NumCollect: c.numCollect,
		BytesFreed: c.bytesFreed,
		LastBytes:  c.lastBytes,
	}
}

// LiveAddresses returns the base addresses of every block currently
// tracked, sorted ascending for deterministic test assertions and
// reporting (spec.md §5 warns finalizer/bucket order is otherwise a
// function of hash, capacity and insertion sequence).
func (c *Collector) LiveAddresses() []uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]uintptr, 0, c.allocs.size)
	c.allocs.forEach(func(r *record) { out = append(out, r.base) })
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PublishExpvars exposes live collector stats under the given name via
// expvar, the way the standard library's own runtime/debug and net/http
// packages publish operational counters for a running process to
// scrape. Safe to call at most once per name; a second call with the
// same name panics, matching expvar.Publish's own contract.
func (c *Collector) PublishExpvars(name string) {
	expvar.Publish(name, expvar.Func(func() any {
		s := c.Stats()
		return map[string]uint64{
			"capacity":    s.Capacity,
			"size":        s.Size,
			"sweep_limit": s.SweepLimit,
			"num_collect": s.NumCollect,
			"bytes_freed": s.BytesFreed,
			"last_bytes":  s.LastBytes,
		}
	}))
}
