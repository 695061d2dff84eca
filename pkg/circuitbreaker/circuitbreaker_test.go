package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failN(n int) func(context.Context) error {
	calls := 0
	return func(context.Context) error {
		calls++
		if calls <= n {
			return errBoom
		}
		return nil
	}
}

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return nil })
		require.NoError(t, err)
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.IsClosed())
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return errBoom })
		assert.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.True(t, cb.IsOpen())

	// Requests are rejected without running the function.
	ran := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(2),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(5),
	)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	// First probe transitions the breaker to half-open.
	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateHalfOpen, cb.State())

	// Second consecutive success closes it.
	err = cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
	)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	err := cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IsFailurePredicate(t *testing.T) {
	benign := errors.New("cache miss")
	cb := New("test",
		WithFailureThreshold(2),
		WithIsFailure(func(err error) bool { return !errors.Is(err, benign) }),
	)

	// Benign errors never trip the breaker.
	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return benign })
		assert.ErrorIs(t, err, benign)
	}
	assert.Equal(t, StateClosed, cb.State())

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	}
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	fallbackRan := false
	err := cb.ExecuteWithFallback(context.Background(),
		func(context.Context) error { return nil },
		func(err error) error {
			fallbackRan = true
			return nil
		},
	)
	assert.NoError(t, err)
	assert.True(t, fallbackRan)
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition

	cb := New("test",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			assert.Equal(t, "test", name)
			transitions = append(transitions, transition{from, to})
		}),
	)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })

	require.Len(t, transitions, 1)
	assert.Equal(t, StateClosed, transitions[0].from)
	assert.Equal(t, StateOpen, transitions[0].to)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestCircuitBreaker_Counts(t *testing.T) {
	cb := New("test", WithFailureThreshold(10))

	_ = cb.Execute(context.Background(), func(context.Context) error { return nil })
	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	_ = cb.Execute(context.Background(), func(context.Context) error { return nil })

	counts := cb.Counts()
	assert.Equal(t, 3, counts.Requests)
	assert.Equal(t, 2, counts.TotalSuccesses)
	assert.Equal(t, 1, counts.TotalFailures)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
