// Demo driver exercising the cold-start and steady-state scenarios a
// realtime caller and a background replenisher go through together.
package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/rtalloc/internal/allocator"
)

func main() {
	fmt.Println("=== rtalloc demo ===")

	if err := coldStart(); err != nil {
		panic(fmt.Sprintf("cold start failed: %v", err))
	}

	if err := steadyState(); err != nil {
		panic(fmt.Sprintf("steady state failed: %v", err))
	}
}

// coldStart mirrors end-to-end scenario 1: a single-threaded pool sized for
// one large request, where an oversize request must fail cleanly.
func coldStart() error {
	fmt.Println("\n1. Cold start (single-threaded)...")

	sa, err := allocator.NewSizedAllocator(allocator.SizedAllocatorConfig{
		MaxPayload: 10000,
		MinFree:    2,
		MaxFree:    4,
		ThreadSafe: false,
		Logger:     allocator.NewDefaultLogger(),
	})
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	defer sa.Close()

	if blk := sa.Allocate(10000); blk == nil {
		return fmt.Errorf("expected allocate(10000) to succeed")
	} else {
		sa.Deallocate(blk)
	}
	fmt.Println("✓ allocate(10000) succeeded")

	if blk := sa.Allocate(100000); blk != nil {
		return fmt.Errorf("expected allocate(100000) to fail")
	}
	fmt.Println("✓ allocate(100000) returned null and logged a warning")

	return nil
}

// steadyState mirrors end-to-end scenario 2: an RT goroutine performs a
// million allocate/deallocate pairs against a thread-safe pool while a
// background goroutine replenishes it every 10ms. errgroup coordinates the
// two roles and propagates the first error/panic-free failure.
func steadyState() error {
	fmt.Println("\n2. Steady state (RT + replenisher)...")

	pool, err := allocator.NewPool(allocator.PoolConfig{
		PayloadSize: 64,
		MinFree:     16,
		MaxFree:     32,
		ThreadSafe:  true,
		Logger:      allocator.NewDefaultLogger(),
	})
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			fmt.Printf("(pool close deferred with outstanding blocks: %v)\n", cerr)
		}
	}()

	const iterations = 1_000_000

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				pool.Replenish()
			}
		}
	})

	g.Go(func() error {
		start := time.Now()
		var nulls int
		for i := 0; i < iterations; i++ {
			blk := pool.Allocate()
			if blk == nil {
				nulls++
				continue
			}
			pool.Deallocate(blk)
		}
		elapsed := time.Since(start)
		fmt.Printf("✓ %d allocate/deallocate pairs in %v (avg: %v per pair), nulls=%d\n",
			iterations, elapsed, elapsed/iterations, nulls)
		cancel()
		return nil
	})

	return g.Wait()
}
