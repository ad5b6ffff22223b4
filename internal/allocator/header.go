package allocator

import "unsafe"

// blockHeader sits at the start of every block a Pool hands out and holds
// list linkage while the block is free or pending (list.go is the only
// reader/writer of prev/next). Pool itself has no notion of ownership or
// back-references; a caller that wants those — SizedAllocator — carves its
// own small header out of the front of the payload bytes Pool hands back,
// layering a dispatcher header on top of a pool's own block header.
type blockHeader struct {
	prev, next *blockHeader
}

const blockHeaderSize = unsafe.Sizeof(blockHeader{})

// headerOf recovers the blockHeader that precedes a payload pointer.
func headerOf(payload unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(payload) - blockHeaderSize))
}

// payload returns the payload pointer for a block given its header.
func (h *blockHeader) payload() unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(h)) + blockHeaderSize)
}
