package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errWrite = errors.New("write failed")

// fakeClock is advanced by hand
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

func run(b *Breaker, success bool) error {
	return b.Do(context.Background(), func(context.Context) error {
		if success {
			return nil
		}
		return errWrite
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			settings:      Settings{MaxRequests: 1, Timeout: time.Minute},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				MaxRequests: 1,
				Timeout:     time.Minute,
				ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 3 },
			},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name: "success resets the failure streak",
			settings: Settings{
				MaxRequests: 1,
				Timeout:     time.Minute,
				ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 2 },
			},
			requests:      []bool{false, true, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", tt.settings)
			for _, success := range tt.requests {
				_ = run(breaker, success)
			}
			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := New("store", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		Now:         clock.Now,
	})

	require.ErrorIs(t, run(breaker, false), errWrite)

	called := false
	err := breaker.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	breaker := New("store", Settings{
		MaxRequests: 1,
		Timeout:     time.Second,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
		Now: clock.Now,
	})

	_ = run(breaker, false)
	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, run(breaker, true))
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := New("store", Settings{
		Timeout:     time.Second,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		Now:         clock.Now,
	})

	_ = run(breaker, false)
	clock.Advance(2 * time.Second)
	_ = run(breaker, false)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := New("store", Settings{Interval: time.Minute, Now: clock.Now})

	_ = run(breaker, false)
	_ = run(breaker, true)
	assert.Equal(t, uint32(2), breaker.Counts().Requests)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, Counts{}, breaker.Counts())
}

func TestBreakerCancelledContextIsNotAFailure(t *testing.T) {
	breaker := New("store", Settings{
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	ctx, cancel := context.WithCancel(context.Background())
	err := breaker.Do(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, Counts{}, breaker.Counts())

	err = breaker.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBreakerSnapshot(t *testing.T) {
	breaker := New("sqlite", Settings{})
	_ = run(breaker, true)

	snap := breaker.Snapshot()
	assert.Equal(t, "sqlite", snap.Name)
	assert.Equal(t, "closed", snap.State)
	assert.Equal(t, uint32(1), snap.Counts.TotalSuccesses)
}

func TestBreakerConcurrentUse(t *testing.T) {
	breaker := New("store", Settings{
		ReadyToTrip: func(Counts) bool { return false },
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = run(breaker, i%2 == 0)
		}(i)
	}
	wg.Wait()

	counts := breaker.Counts()
	assert.Equal(t, uint32(50), counts.Requests)
	assert.Equal(t, uint32(25), counts.TotalSuccesses)
	assert.Equal(t, uint32(25), counts.TotalFailures)
}
