package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCheck_DeniesRequestPastLimit(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))
	b := Bucket{Name: "test", Limit: 3, Window: time.Minute}

	for i := 1; i <= 3; i++ {
		d := l.Check(b, "rider-1")
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d := l.Check(b, "rider-1")
	assert.False(t, d.Allowed)
	assert.LessOrEqual(t, d.Remaining, 0)
	assert.Greater(t, d.TTLSeconds, 0)
}

func TestCheck_WindowResets(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))
	b := Bucket{Name: "test", Limit: 1, Window: time.Minute}

	require.True(t, l.Check(b, "ip").Allowed)
	require.False(t, l.Check(b, "ip").Allowed)

	clock.Advance(59 * time.Second)
	assert.False(t, l.Check(b, "ip").Allowed, "window still open")

	clock.Advance(time.Second)
	d := l.Check(b, "ip")
	assert.True(t, d.Allowed, "window elapsed")
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 60, d.TTLSeconds)
}

func TestCheck_TTLRoundsUp(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))
	b := Bucket{Name: "test", Limit: 10, Window: time.Minute}

	l.Check(b, "ip")
	clock.Advance(59*time.Second + 500*time.Millisecond)
	assert.Equal(t, 1, l.Check(b, "ip").TTLSeconds)

	clock.Advance(-30 * time.Second)
	assert.Equal(t, 31, l.Check(b, "ip").TTLSeconds)
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	l := New(WithClock(newFakeClock().Now))
	b := Bucket{Name: "read", Limit: 1, Window: time.Minute}
	other := Bucket{Name: "write", Limit: 1, Window: time.Minute}

	assert.True(t, l.Check(b, "rider-1").Allowed)
	assert.True(t, l.Check(b, "rider-2").Allowed)
	assert.True(t, l.Check(other, "rider-1").Allowed)
	assert.False(t, l.Check(b, "rider-1").Allowed)
	assert.Equal(t, 3, l.Len())
}

func TestCheckAll_FirstDeniedBucketWins(t *testing.T) {
	l := New(WithClock(newFakeClock().Now))
	burst := Bucket{Name: NameAIBurst, Limit: 1, Window: time.Minute}
	daily := Bucket{Name: NameAIDaily, Limit: 1, Window: 24 * time.Hour}

	require.NoError(t, l.CheckAll("rider-1", burst, daily))

	err := l.CheckAll("rider-1", burst, daily)
	var exceeded *ExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, NameAIBurst, exceeded.Bucket)
	assert.Equal(t, 0, exceeded.Remaining)
	assert.Equal(t, 60, exceeded.RetryAfter)
}

func TestCheckAll_CountsEveryBucket(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))
	write := Bucket{Name: NameWrite, Limit: 100, Window: time.Minute}
	daily := Bucket{Name: NameAIDaily, Limit: 2, Window: 24 * time.Hour}
	burst := Bucket{Name: NameAIBurst, Limit: 1, Window: time.Minute}

	require.NoError(t, l.CheckAll("r", write, burst, daily))

	// Burst denies, but daily must still be counted.
	err := l.CheckAll("r", write, burst, daily)
	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, NameAIBurst, exceeded.Bucket)

	clock.Advance(time.Minute)
	err = l.CheckAll("r", write, burst, daily)
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, NameAIDaily, exceeded.Bucket)
	assert.Equal(t, 98, l.Check(write, "r").Remaining)
}

func TestCheck_ConcurrentIncrementsAreAtomic(t *testing.T) {
	l := New()
	b := Bucket{Name: "burst", Limit: 50, Window: time.Hour}

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(b, "same-key").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowed.Load())
}

func TestSweep_RemovesExpiredCounters(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))
	minute := Bucket{Name: "read", Limit: 10, Window: time.Minute}
	day := Bucket{Name: "ai:daily", Limit: 10, Window: 24 * time.Hour}

	l.Check(minute, "a")
	l.Check(minute, "b")
	l.Check(day, "a")

	assert.Equal(t, 0, l.Sweep())
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestDefaultBuckets(t *testing.T) {
	b := DefaultBuckets()
	assert.Equal(t, Bucket{Name: "read", Limit: 120, Window: time.Minute}, b.Read)
	assert.Equal(t, Bucket{Name: "write", Limit: 60, Window: time.Minute}, b.Write)
	assert.Equal(t, Bucket{Name: "auth", Limit: 10, Window: time.Minute}, b.Auth)
	assert.Equal(t, Bucket{Name: "ai:burst", Limit: 5, Window: time.Minute}, b.AIBurst)
	assert.Equal(t, Bucket{Name: "ai:daily", Limit: 50, Window: 24 * time.Hour}, b.AIDaily)
}

func TestJanitor_SweepsAndStops(t *testing.T) {
	clock := newFakeClock()
	l := New(WithClock(clock.Now))
	l.Check(Bucket{Name: "read", Limit: 1, Window: time.Minute}, "a")
	clock.Advance(time.Hour)

	j, err := NewJanitor(l, "@every 1s", slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return l.Len() == 0 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestNewJanitor_InvalidSpec(t *testing.T) {
	_, err := NewJanitor(New(), "every so often", slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
