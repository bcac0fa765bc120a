package fetch

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_FirstCallDoesNotWait(t *testing.T) {
	r := &rateLimiter{minDelay: 50 * time.Millisecond}
	start := time.Now()
	r.wait(context.Background())
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("expected the first call not to wait, took %v", elapsed)
	}
}

func TestRateLimiter_SecondCallWaitsOutMinDelay(t *testing.T) {
	r := &rateLimiter{minDelay: 60 * time.Millisecond}
	r.wait(context.Background())
	start := time.Now()
	r.wait(context.Background())
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected the second call to wait close to min delay, took %v", elapsed)
	}
}

func TestRateLimiter_ContextCancellationStopsWait(t *testing.T) {
	r := &rateLimiter{minDelay: 5 * time.Second}
	r.wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	r.wait(ctx)
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("expected context cancellation to cut the wait short, took %v", elapsed)
	}
}

func TestRateLimiter_AlreadyElapsedDoesNotWait(t *testing.T) {
	r := &rateLimiter{minDelay: 10 * time.Millisecond, last: time.Now().Add(-time.Second)}
	start := time.Now()
	r.wait(context.Background())
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("expected no wait when minDelay has already elapsed, took %v", elapsed)
	}
}
