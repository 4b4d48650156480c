// Command gcdemo drives the collector through a small allocation
// workload and reports what was collected, as a smoke test and a
// microbenchmark harness for the tuning constants in GCDEBUG.
package main

import (
	"flag"
	"fmt"
	"log"
	"unsafe"

	"github.com/dwminer/armorcore/gc"
)

func main() {
	blocks := flag.Int("blocks", 2000, "number of transient blocks to allocate")
	blockSize := flag.Int("size", 64, "size in bytes of each transient block")
	keepEvery := flag.Int("keep-every", 50, "root every Nth block so it survives collection")
	flag.Parse()

	c := gc.New()
	if err := c.Start(); err != nil {
		log.Fatalf("gc: start: %v", err)
	}
	defer c.Stop()

	c.PublishExpvars("gcdemo")

	var kept []unsafe.Pointer
	for i := 0; i < *blocks; i++ {
		p, err := c.Alloc(1, uintptr(*blockSize))
		if err != nil {
			log.Fatalf("gc: alloc %d: %v", i, err)
		}
		if *keepEvery > 0 && i%(*keepEvery) == 0 {
			c.Root(p)
			kept = append(kept, p)
		}
	}

	freed, err := c.Run()
	if err != nil {
		log.Fatalf("gc: run: %v", err)
	}

	stats := c.Stats()
	fmt.Printf("collected %d bytes, %d blocks still rooted\n", freed, len(kept))
	fmt.Printf("capacity=%d size=%d sweep_limit=%d num_collect=%d\n",
		stats.Capacity, stats.Size, stats.SweepLimit, stats.NumCollect)
}
