package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestClockFrozen(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	c := NewClock(base)

	if got := c.Now(); !got.Equal(base) {
		t.Errorf("Now() = %v, want %v", got, base)
	}
	// Repeated reads do not move time.
	if got := c.Now(); !got.Equal(base) {
		t.Errorf("second Now() = %v, want %v", got, base)
	}
}

func TestClockAdvance(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	c := NewClock(base)

	got := c.Advance(24 * time.Hour)
	want := base.Add(24 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("Advance() = %v, want %v", got, want)
	}
	if now := c.Now(); !now.Equal(want) {
		t.Errorf("Now() after advance = %v, want %v", now, want)
	}
}

func TestClockSet(t *testing.T) {
	c := NewClock(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))
	target := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.Set(target)
	if got := c.Now(); !got.Equal(target) {
		t.Errorf("Now() after Set = %v, want %v", got, target)
	}
}

func TestClockConcurrentAdvance(t *testing.T) {
	c := NewClock(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
	}
	wg.Wait()

	want := time.Date(2026, 8, 20, 10, 0, 50, 0, time.UTC)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() after concurrent advances = %v, want %v", got, want)
	}
}
