package renderer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// withSlot runs fn under the same slot discipline as BrowserPool.WithTab,
// without a browser behind it.
func withSlot(ctx context.Context, slots tabSlots, fn func(ctx context.Context) error) error {
	if err := slots.acquire(ctx); err != nil {
		return err
	}
	defer slots.release()
	return fn(ctx)
}

func TestTabSlots_Backpressure_NeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 3} {
		// Arrange
		slots := newTabSlots(capacity)
		var concurrentCount int32
		var maxConcurrent int32
		var wg sync.WaitGroup

		// Act - Launch more requests than slots
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = withSlot(context.Background(), slots, func(ctx context.Context) error {
					current := atomic.AddInt32(&concurrentCount, 1)
					for {
						max := atomic.LoadInt32(&maxConcurrent)
						if current <= max || atomic.CompareAndSwapInt32(&maxConcurrent, max, current) {
							break
						}
					}
					time.Sleep(10 * time.Millisecond)
					atomic.AddInt32(&concurrentCount, -1)
					return nil
				})
			}()
		}
		wg.Wait()

		// Assert
		if maxConcurrent > int32(capacity) {
			t.Errorf("capacity %d: maxConcurrent got %d (backpressure violated)", capacity, maxConcurrent)
		}
	}
}

func TestTabSlots_ReleasedOnError(t *testing.T) {
	// Arrange
	slots := newTabSlots(1)
	expectedErr := errors.New("intentional error")

	// Act
	err := withSlot(context.Background(), slots, func(ctx context.Context) error {
		return expectedErr
	})

	// Assert
	if err != expectedErr {
		t.Errorf("error: got %v, want %v", err, expectedErr)
	}
	done := make(chan bool, 1)
	go func() {
		_ = withSlot(context.Background(), slots, func(ctx context.Context) error { return nil })
		done <- true
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("second call blocked - slot was not released after error")
	}
}

func TestTabSlots_ReleasedOnPanic(t *testing.T) {
	// Arrange
	slots := newTabSlots(1)

	// Act
	func() {
		defer func() {
			recover()
		}()
		_ = withSlot(context.Background(), slots, func(ctx context.Context) error {
			panic("intentional panic")
		})
	}()

	// Assert
	done := make(chan bool, 1)
	go func() {
		_ = withSlot(context.Background(), slots, func(ctx context.Context) error { return nil })
		done <- true
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("second call blocked - slot was not released after panic")
	}
}

func TestTabSlots_ContextCanceled_WhileWaiting(t *testing.T) {
	// Arrange
	slots := newTabSlots(1)
	slots <- struct{}{} // hold the only slot
	ctx, cancel := context.WithCancel(context.Background())

	// Act
	errChan := make(chan error, 1)
	go func() {
		errChan <- withSlot(ctx, slots, func(ctx context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-errChan:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("acquire should have returned after context cancellation")
	}

	<-slots
}

func TestTabSlots_DeadlineExceeded_WhileWaiting(t *testing.T) {
	// Arrange
	slots := newTabSlots(1)
	slots <- struct{}{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	err := withSlot(ctx, slots, func(ctx context.Context) error { return nil })

	// Assert
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got: %v", err)
	}

	<-slots
}

func TestTabSlots_ConcurrentRequests_AllComplete(t *testing.T) {
	// Arrange
	slots := newTabSlots(2)
	var completed int32
	var wg sync.WaitGroup
	numRequests := 10

	// Act
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = withSlot(context.Background(), slots, func(ctx context.Context) error {
				atomic.AddInt32(&completed, 1)
				return nil
			})
		}()
	}
	wg.Wait()

	// Assert
	if completed != int32(numRequests) {
		t.Errorf("completed: got %d, want %d", completed, numRequests)
	}
}

func TestAllocatorOptions_IncludesConfiguredPath(t *testing.T) {
	// Arrange
	cfg := DefaultBrowserConfig()
	base := len(AllocatorOptions(cfg))
	cfg.ExecPath = "/usr/bin/chromium"
	cfg.ExtraFlags = []string{"single-process"}

	// Act
	opts := AllocatorOptions(cfg)

	// Assert
	if len(opts) != base+2 {
		t.Errorf("options: got %d, want %d", len(opts), base+2)
	}
}

func TestNewBrowserPool_InvalidConfig_ReturnsError(t *testing.T) {
	cfg := DefaultBrowserConfig()
	cfg.MaxTabs = 0

	if _, err := NewBrowserPool(cfg); err == nil {
		t.Error("expected validation error before launching chrome")
	}
}
