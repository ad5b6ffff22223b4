package allocator

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// PoolConfig configures a Pool. Zero-value Logger/Source/AlignmentSize
// fall back to NopLogger, the platform OS source, and pointer alignment
// respectively.
type PoolConfig struct {
	PayloadSize   uintptr
	MinFree       int
	MaxFree       int
	ThreadSafe    bool
	AlignmentSize uintptr
	Logger        Logger
	Source        osSource
}

// Pool is a fixed-size free-list allocator with a realtime/non-realtime
// split. Every block it hands out has the same total size
// (blockHeaderSize + PayloadSize, rounded up to AlignmentSize).
//
// In ThreadSafe mode, two lists exist: freeList (owned by the realtime
// caller, mutated without a lock) and pendingList (owned by the
// replenisher, mutated under mu). mirrorCount is the replenisher's private
// snapshot of freeCount, updated opportunistically by the realtime path
// whenever it wins mu.TryLock. See Allocate/Deallocate/Replenish for the
// handoff protocol.
type Pool struct {
	payloadSize uintptr
	blockSize   uintptr
	// minFree/maxFree are read on the lock-free realtime path (Allocate,
	// Deallocate) and written from SetWaterMarks, which a config-reload
	// goroutine may call concurrently; atomics keep that pair race-free
	// without putting the water marks behind mu.
	minFree    atomic.Int64
	maxFree    atomic.Int64
	threadSafe bool
	logger     Logger
	source     osSource

	inUse     int
	freeList  blockList
	freeCount int

	// thread-safe-only state, guarded by mu.
	mu          sync.Mutex
	pendingList blockList
	mirrorCount int
}

func (p *Pool) minFreeValue() int { return int(p.minFree.Load()) }
func (p *Pool) maxFreeValue() int { return int(p.maxFree.Load()) }

// NewPool creates a Pool and performs one Replenish pass to reach MinFree.
// If that pass cannot obtain any memory while MinFree > 0, the partially
// built pool is torn down and ErrOutOfMemory is returned.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.PayloadSize == 0 {
		return nil, ErrInvalidPoolSize
	}
	if !(cfg.MinFree < cfg.MaxFree) {
		return nil, ErrInvalidWaterMarks
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	source := cfg.Source
	if source == nil {
		source = newOSSource()
	}
	alignment := cfg.AlignmentSize
	if alignment == 0 {
		alignment = unsafe.Alignof(uintptr(0))
	}

	p := &Pool{
		payloadSize: cfg.PayloadSize,
		blockSize:   alignUp(blockHeaderSize+cfg.PayloadSize, alignment),
		threadSafe:  cfg.ThreadSafe,
		logger:      logger,
		source:      source,
	}
	p.minFree.Store(int64(cfg.MinFree))
	p.maxFree.Store(int64(cfg.MaxFree))

	logger.Debug("pool: called", map[string]any{
		"op": "create", "payload_size": cfg.PayloadSize,
		"min_free": cfg.MinFree, "max_free": cfg.MaxFree,
	})

	// No realtime caller exists yet to adopt pending->free, so the initial
	// fill must land directly on freeList regardless of ThreadSafe;
	// replenishUnsafe is exactly that bootstrap. Replenish's thread-safe
	// branch only ever stages onto pendingList, which would otherwise leave
	// a freshly-created pool with FreeCount()==0 until some RT caller
	// happened to run.
	p.replenishUnsafe()
	if p.threadSafe {
		p.mirrorCount = p.freeCount
	}

	if cfg.MinFree > 0 && p.freeCount == 0 {
		p.releaseAll()
		return nil, ErrOutOfMemory
	}

	return p, nil
}

// Close destroys the pool. It requires InUse() == 0; otherwise it returns
// ErrPoolBusy and leaves the pool untouched.
func (p *Pool) Close() error {
	if p.inUse != 0 {
		return ErrPoolBusy
	}
	p.releaseAll()
	return nil
}

func (p *Pool) releaseAll() {
	for h := p.freeList.popHead(); h != nil; h = p.freeList.popHead() {
		p.source.release(unsafe.Pointer(h), int(p.blockSize))
	}
	for h := p.pendingList.popHead(); h != nil; h = p.pendingList.popHead() {
		p.source.release(unsafe.Pointer(h), int(p.blockSize))
	}
	p.freeCount, p.mirrorCount = 0, 0
}

// InUse reports the number of blocks currently handed out.
func (p *Pool) InUse() int { return p.inUse }

// FreeCount reports the length of the realtime-visible free list.
func (p *Pool) FreeCount() int { return p.freeCount }

// SetWaterMarks updates MinFree/MaxFree on a running pool, taking effect on
// the next Replenish. Non-realtime: intended for config-reload paths, not
// the allocate/deallocate hot path.
func (p *Pool) SetWaterMarks(minFree, maxFree int) error {
	if !(minFree < maxFree) {
		return ErrInvalidWaterMarks
	}
	p.minFree.Store(int64(minFree))
	p.maxFree.Store(int64(maxFree))
	return nil
}

// PendingCount reports the length of the replenisher's pending list.
func (p *Pool) PendingCount() int {
	if !p.threadSafe {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingList.len()
}

// Replenish brings the effective free inventory between MinFree and
// MaxFree inclusive. Non-realtime: may block on mu and call into the OS
// source.
func (p *Pool) Replenish() {
	if !p.threadSafe {
		p.replenishUnsafe()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	minFree, maxFree := p.minFreeValue(), p.maxFreeValue()
	c := p.mirrorCount
	for c < minFree {
		ptr, err := p.source.acquire(int(p.blockSize))
		if err != nil {
			// OOM is absorbed here; the next Replenish call retries.
			break
		}
		p.pendingList.pushTail((*blockHeader)(ptr))
		c++
		p.logger.Debug("pool: replenish", map[string]any{"using_chunk_of_size": p.blockSize})
	}
	for c > maxFree && !p.pendingList.empty() {
		h := p.pendingList.popHead()
		p.source.release(unsafe.Pointer(h), int(p.blockSize))
		c--
	}
	p.mirrorCount = c
}

func (p *Pool) replenishUnsafe() {
	minFree, maxFree := p.minFreeValue(), p.maxFreeValue()
	c := p.freeCount
	for c < minFree {
		ptr, err := p.source.acquire(int(p.blockSize))
		if err != nil {
			break
		}
		p.freeList.pushTail((*blockHeader)(ptr))
		c++
		p.logger.Debug("pool: replenish", map[string]any{"using_chunk_of_size": p.blockSize})
	}
	for c > maxFree && !p.freeList.empty() {
		h := p.freeList.popHead()
		p.source.release(unsafe.Pointer(h), int(p.blockSize))
		c--
	}
	p.freeCount = c
}

// Allocate returns a payload pointer, or nil if the free list is empty.
// Realtime: never calls the OS source, never blocks on mu.
func (p *Pool) Allocate() unsafe.Pointer {
	h := p.freeList.popHead()
	if h == nil {
		return nil
	}
	p.freeCount--
	p.inUse++

	if p.threadSafe {
		if p.mu.TryLock() {
			minFree := p.minFreeValue()
			for p.freeCount < minFree && !p.pendingList.empty() {
				adopted := p.pendingList.popHead()
				p.freeList.pushTail(adopted)
				p.freeCount++
			}
			p.mirrorCount = p.freeCount
			p.mu.Unlock()
		}
	}

	return h.payload()
}

// Deallocate returns a block to the pool. Realtime: never calls the OS
// source, never blocks on mu. Cannot fail.
func (p *Pool) Deallocate(block unsafe.Pointer) {
	h := headerOf(block)
	p.freeList.pushTail(h)
	p.inUse--
	p.freeCount++

	if p.threadSafe {
		if p.mu.TryLock() {
			maxFree := p.maxFreeValue()
			for p.freeCount > maxFree {
				surplus := p.freeList.popHead()
				p.pendingList.pushTail(surplus)
				p.freeCount--
			}
			p.mirrorCount = p.freeCount
			p.mu.Unlock()
		}
	}
}

// AllocateBlocking repeatedly replenishes and allocates until it succeeds
// or ctx is done. Intended for non-realtime startup paths; pass
// context.Background() to loop indefinitely.
func (p *Pool) AllocateBlocking(ctx context.Context) unsafe.Pointer {
	for {
		if blk := p.Allocate(); blk != nil {
			return blk
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		p.Replenish()
		runtime.Gosched()
	}
}
