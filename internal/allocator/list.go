package allocator

// blockList is an intrusive doubly-linked list of blocks: O(1) push-tail and
// pop-head, implemented over the prev/next fields already present in
// blockHeader so no separate node allocation is needed per list membership.
type blockList struct {
	head, tail *blockHeader
	length     int
}

func (l *blockList) empty() bool { return l.length == 0 }

func (l *blockList) len() int { return l.length }

// pushTail appends h. h must not already belong to a list.
func (l *blockList) pushTail(h *blockHeader) {
	h.prev, h.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = h
	} else {
		l.head = h
	}
	l.tail = h
	l.length++
}

// popHead detaches and returns the head of the list, or nil if empty.
func (l *blockList) popHead() *blockHeader {
	h := l.head
	if h == nil {
		return nil
	}
	l.head = h.next
	if l.head != nil {
		l.head.prev = nil
	} else {
		l.tail = nil
	}
	h.prev, h.next = nil, nil
	l.length--
	return h
}
