package util

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestForEach_VisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		seen := make([]int32, 50)
		ForEach(context.Background(), len(seen), workers, func(i int) {
			atomic.AddInt32(&seen[i], 1)
		})
		for i, n := range seen {
			if n != 1 {
				t.Fatalf("workers=%d: index %d visited %d times", workers, i, n)
			}
		}
	}
}

func TestForEach_CancelledSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	ForEach(ctx, 100, 1, func(int) { atomic.AddInt32(&calls, 1) })
	if calls != 0 {
		t.Errorf("expected no calls after cancellation, got %d", calls)
	}
}

func TestForEach_Empty(t *testing.T) {
	ForEach(context.Background(), 0, 4, func(int) { t.Fatal("unexpected call") })
}
