//go:build unix

package allocator

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mmapSource acquires/releases memory directly from the kernel via
// anonymous, private mmap mappings, avoiding the Go heap (and therefore the
// GC) entirely for the blocks a Pool hands to the realtime caller.
type mmapSource struct{}

func newOSSource() osSource { return mmapSource{} }

func (mmapSource) acquire(n int) (unsafe.Pointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("allocator: mmap: invalid size %d", n)
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("allocator: mmap: %w", err)
	}
	return unsafe.Pointer(&b[0]), nil
}

func (mmapSource) release(ptr unsafe.Pointer, n int) {
	if ptr == nil || n <= 0 {
		return
	}
	b := unsafe.Slice((*byte)(ptr), n)
	_ = unix.Munmap(b)
}
