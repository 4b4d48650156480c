//go:build !unix

package gc

// newDefaultAllocator is the portable fallback used wherever an
// mmap-backed Allocator (allocator_unix.go) is unavailable.
func newDefaultAllocator() Allocator { return heapAllocator{} }
