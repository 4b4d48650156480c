package gc

import "errors"

// Sentinel errors returned by the collector's public API (§7 of the
// design: OutOfMemory, UnknownPointer, MetadataAllocationFailure).
var (
	// ErrOutOfMemory is returned when the raw allocator refused a
	// request. The Alloc functions first run one recovery cycle and
	// retry once, unless the collector is paused; Realloc returns it
	// at once, without a recovery cycle or a retry.
	ErrOutOfMemory = errors.New("gc: out of memory")

	// ErrUnknownPointer is returned by Realloc when called with a
	// non-nil pointer the collector does not track.
	ErrUnknownPointer = errors.New("gc: unknown pointer")

	// ErrMetadataAllocation is returned when the raw allocation
	// succeeded but the index could not register a record for it;
	// the raw block is released before this error is returned.
	ErrMetadataAllocation = errors.New("gc: allocation metadata could not be recorded")

	// ErrNotRunning is returned by operations attempted outside the
	// running state (before Start or after Stop).
	ErrNotRunning = errors.New("gc: collector is not running")
)
