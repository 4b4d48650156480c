package gc

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// debugOptions holds the knobs read from the GCDEBUG environment
// variable, modeled directly on runtime's own GODEBUG (see
// SPEC_FULL.md's Configuration section): a comma-separated list of
// name=val pairs, parsed once at Start.
//
// Recognized keys:
//
//	gctrace=1        log one line per collection cycle (Run, size- or
//	                 OOM-triggered, and Stop)
//	upsizefactor=F   override the index's upsize load-factor trigger
//	downsizefactor=F override the index's downsize load-factor trigger
//	sweepfactor=F    override the index's sweep_limit derivation factor
type debugOptions struct {
	trace          bool
	upsizeFactor   float64
	downsizeFactor float64
	sweepFactor    float64
}

func envGCDEBUG() string { return os.Getenv("GCDEBUG") }

func parseDebugOptions(env string) debugOptions {
	opt := debugOptions{
		upsizeFactor:   defaultUpsizeFactor,
		downsizeFactor: defaultDownsizeFactor,
		sweepFactor:    defaultSweepFactor,
	}
	for _, pair := range strings.Split(env, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch name {
		case "gctrace":
			opt.trace = val == "1"
		case "upsizefactor":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				opt.upsizeFactor = f
			}
		case "downsizefactor":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				opt.downsizeFactor = f
			}
		case "sweepfactor":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				opt.sweepFactor = f
			}
		}
	}
	return opt
}

// traceLogger is package-scoped, not per-Collector: GCDEBUG is a
// process-wide setting, same as GODEBUG.
var traceLogger = log.New(os.Stderr, "gc: ", log.LstdFlags)

func (c *Collector) traceCycle(kind string, freed uint64) {
	if !c.debug.trace {
		return
	}
	traceLogger.Printf("%s: freed=%d size=%d capacity=%d", kind, freed, c.allocs.size, c.allocs.capacity)
}
