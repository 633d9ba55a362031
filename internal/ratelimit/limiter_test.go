package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiter_RejectsAfterCapacity(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Points: 3, Duration: time.Second}, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d should be admitted", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiter_WindowReset(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Points: 2, Duration: time.Second}, WithClock(clock.Now))

	require.True(t, l.Allow("a"))
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))

	clock.Advance(999 * time.Millisecond)
	assert.False(t, l.Allow("a"))

	clock.Advance(time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(Config{Points: 1, Duration: time.Minute})

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestLimiter_Decision(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Points: 2, Duration: time.Second}, WithClock(clock.Now))

	d := l.Decide("k")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 1, d.Remaining)

	l.Decide("k")
	clock.Advance(250 * time.Millisecond)
	d = l.Decide("k")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 750*time.Millisecond, d.RetryAfter)
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, 10, l.Points())
	assert.Equal(t, time.Second, l.Duration())
}

func TestLimiter_ConcurrentAdmissionsNoLostUpdates(t *testing.T) {
	l := New(Config{Points: 50, Duration: time.Hour})

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), admitted)
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Points: 5, Duration: time.Second}, WithClock(clock.Now))

	l.Allow("old")
	clock.Advance(500 * time.Millisecond)
	l.Allow("fresh")
	clock.Advance(600 * time.Millisecond)

	removed := l.Cleanup()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Len())
}
