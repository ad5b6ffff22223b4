package allocator

import "unsafe"

// osSource is the non-realtime "ask the OS for memory" boundary. Replenish,
// NewPool's initial fill and Close are its only callers; the realtime path
// never touches it directly. Two
// implementations exist: os_memory_unix.go backs it with unix.Mmap/Munmap,
// os_memory_fallback.go backs it with a Go-managed []byte for platforms
// without raw mmap access.
type osSource interface {
	// acquire returns n bytes of fresh memory, or an error if the OS
	// refused. The returned region is not zeroed by contract beyond what
	// the underlying primitive already guarantees.
	acquire(n int) (unsafe.Pointer, error)
	// release returns a region previously obtained from acquire with the
	// same n. Never called concurrently with acquire/release of the same
	// region.
	release(ptr unsafe.Pointer, n int)
}
