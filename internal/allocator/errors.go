package allocator

import "errors"

// Sentinel errors for the allocator's non-realtime-visible failure paths.
// The realtime path (Pool.Allocate, Pool.Deallocate, SizedAllocator.Allocate,
// SizedAllocator.Deallocate) never returns an error; it signals failure by
// returning a nil pointer instead.
var (
	// ErrInvalidWaterMarks is returned by NewPool/NewSizedAllocator when
	// MinFree is not strictly less than MaxFree.
	ErrInvalidWaterMarks = errors.New("allocator: min_free must be less than max_free")

	// ErrPoolBusy is returned by Pool.Close/SizedAllocator.Close when the
	// pool still has blocks handed out. Destroying a busy pool is a
	// programming error; spec treats it as fatal in the prototype, but a
	// production Go port surfaces it as an error instead of panicking.
	ErrPoolBusy = errors.New("allocator: pool destroyed with outstanding blocks")

	// ErrOutOfMemory is returned by NewPool/NewSizedAllocator when the
	// initial replenish pass to MinFree could not obtain any block from the
	// OS source. A partial fill (some blocks, fewer than MinFree) is not an
	// error.
	ErrOutOfMemory = errors.New("allocator: OS memory source exhausted")

	// ErrCorruptHeader is the panic value raised by SizedAllocator.Deallocate
	// when the back-reference read from the block's header is nil. A
	// corrupt back-reference is a programming error, signalled as a fatal
	// assertion rather than returned, since deallocate is on the realtime
	// path and cannot return a value.
	ErrCorruptHeader = errors.New("allocator: block header does not reference a known pool")

	// ErrTooManySizeClasses is returned by NewSizedAllocator when the
	// requested MaxPayload would require more size classes than fit in
	// the platform's pointer width.
	ErrTooManySizeClasses = errors.New("allocator: max payload requires too many size classes")

	// ErrInvalidPoolSize is returned by NewPool when PayloadSize is zero.
	ErrInvalidPoolSize = errors.New("allocator: payload size must be greater than zero")
)
