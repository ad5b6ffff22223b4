package allocator

import "unsafe"

// dispatcherHeader is the back-reference SizedAllocator carves out of the
// front of whatever payload the owning Pool hands back. It is a second,
// smaller header layered on top of Pool's own blockHeader: the Pool is
// unaware of it, and it never exists at the same time as list linkage
// would, since a Pool's internal header already lives outside the payload
// bytes this struct occupies.
type dispatcherHeader struct {
	owner *Pool
}

const dispatcherHeaderSize = unsafe.Sizeof(dispatcherHeader{})

// SizedAllocatorConfig configures a SizedAllocator's geometric family of
// pools. Base and Slack default to DefaultBase/DefaultSlack when zero.
type SizedAllocatorConfig struct {
	Base          uintptr
	Slack         uintptr
	AlignmentSize uintptr
	MaxPayload    uintptr
	MinFree       int
	MaxFree       int
	ThreadSafe    bool
	Logger        Logger
	Source        osSource
}

// New builds a SizedAllocator from the shared Config/Option pattern
// (config.go) rather than a single struct literal. NewSizedAllocator
// remains available for callers that already have a fully-populated
// SizedAllocatorConfig.
func New(maxPayload uintptr, minFree, maxFree int, threadSafe bool, opts ...Option) (*SizedAllocator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return NewSizedAllocator(SizedAllocatorConfig{
		Base:          cfg.Base,
		Slack:         cfg.Slack,
		AlignmentSize: cfg.AlignmentSize,
		MaxPayload:    maxPayload,
		MinFree:       minFree,
		MaxFree:       maxFree,
		ThreadSafe:    threadSafe,
		Logger:        cfg.Logger,
		Source:        cfg.Source,
	})
}

// SizedAllocator routes variable-size requests to the smallest Pool whose
// payload comfortably fits the request plus the dispatcher's own
// back-reference header, stamping that reference into the block so
// Deallocate needs no caller-side bookkeeping.
type SizedAllocator struct {
	base  uintptr
	slack uintptr
	pools []*Pool
}

// NewSizedAllocator builds the pool table. Pool i has
// payload_size = Base*2^i - Slack; N is the smallest count such that pool
// N-1 can satisfy MaxPayload plus the back-reference header.
func NewSizedAllocator(cfg SizedAllocatorConfig) (*SizedAllocator, error) {
	base := cfg.Base
	if base == 0 {
		base = DefaultBase
	}
	slack := cfg.Slack
	if slack == 0 {
		slack = DefaultSlack
	}
	if cfg.MaxPayload == 0 {
		return nil, ErrInvalidPoolSize
	}

	needed := cfg.MaxPayload + dispatcherHeaderSize

	const maxSizeClasses = 64
	n := 0
	for poolPayloadSize(base, slack, n) < needed {
		n++
		if n >= maxSizeClasses {
			return nil, ErrTooManySizeClasses
		}
	}
	n++ // n-1 is the largest needed size class index; n is the pool count

	sa := &SizedAllocator{base: base, slack: slack, pools: make([]*Pool, 0, n)}

	for i := 0; i < n; i++ {
		payloadSize := poolPayloadSize(base, slack, i)
		pool, err := NewPool(PoolConfig{
			PayloadSize:   payloadSize,
			MinFree:       cfg.MinFree,
			MaxFree:       cfg.MaxFree,
			ThreadSafe:    cfg.ThreadSafe,
			AlignmentSize: cfg.AlignmentSize,
			Logger:        cfg.Logger,
			Source:        cfg.Source,
		})
		if err != nil {
			sa.Close()
			return nil, err
		}
		sa.pools = append(sa.pools, pool)
	}

	return sa, nil
}

func poolPayloadSize(base, slack uintptr, i int) uintptr {
	return (base << uint(i)) - slack
}

// Close tears down every underlying pool. It fails fast on the first pool
// still holding outstanding blocks, leaving the rest untouched so the
// caller can retry once they are freed.
func (a *SizedAllocator) Close() error {
	for _, p := range a.pools {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}

// findPool returns the smallest pool able to hold size bytes plus the
// dispatcher header, or nil if size exceeds every size class.
func (a *SizedAllocator) findPool(size int) *Pool {
	needed := uintptr(size) + dispatcherHeaderSize
	for _, p := range a.pools {
		if p.payloadSize >= needed {
			return p
		}
	}
	return nil
}

// Allocate returns size usable bytes, or nil if size exceeds the largest
// size class or the chosen pool's free list is exhausted. Realtime: routing
// is a linear scan over a small, fixed pool table and never touches the OS.
func (a *SizedAllocator) Allocate(size int) unsafe.Pointer {
	pool := a.findPool(size)
	if pool == nil {
		a.logger().Warn("data size too big", map[string]any{"size": size})
		return nil
	}

	raw := pool.Allocate()
	if raw == nil {
		return nil
	}

	hdr := (*dispatcherHeader)(raw)
	hdr.owner = pool

	return unsafe.Pointer(uintptr(raw) + dispatcherHeaderSize)
}

// Deallocate returns a block obtained from Allocate to its owning pool. No
// allocator-side lookup is needed: the owner was stamped into the block's
// own back-reference header when it was handed out.
func (a *SizedAllocator) Deallocate(block unsafe.Pointer) {
	raw := unsafe.Pointer(uintptr(block) - dispatcherHeaderSize)
	hdr := (*dispatcherHeader)(raw)
	if hdr.owner == nil {
		panic(ErrCorruptHeader)
	}
	hdr.owner.Deallocate(raw)
}

// Replenish runs Pool.Replenish across every size class. Non-realtime: may
// block and call into the OS source.
func (a *SizedAllocator) Replenish() {
	for _, p := range a.pools {
		p.Replenish()
	}
}

// SetWaterMarks applies the same MinFree/MaxFree to every size class. It is
// the natural target for WatchTuningConfig's onChange callback.
func (a *SizedAllocator) SetWaterMarks(minFree, maxFree int) error {
	for _, p := range a.pools {
		if err := p.SetWaterMarks(minFree, maxFree); err != nil {
			return err
		}
	}
	return nil
}

// Pools exposes the underlying per-size-class pools for introspection and
// tests; callers must not call Allocate/Deallocate on them directly once
// the SizedAllocator owns them, since that would bypass back-reference
// stamping.
func (a *SizedAllocator) Pools() []*Pool { return a.pools }

func (a *SizedAllocator) logger() Logger {
	if len(a.pools) == 0 {
		return NopLogger{}
	}
	return a.pools[0].logger
}
