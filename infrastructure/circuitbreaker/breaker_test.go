package circuitbreaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/circuitbreaker"
)

var errDown = errors.New("db down")

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newBreaker(t *testing.T, clock *fakeClock, transitions *[]string) *circuitbreaker.Breaker {
	t.Helper()

	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          10 * time.Second,
		Now:              clock.Now,
		OnStateChange: func(from, to circuitbreaker.State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		},
	})
}

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string
	b := newBreaker(t, clock, &transitions)
	ctx := context.Background()

	require.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
	require.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, circuitbreaker.StateOpen, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string
	b := newBreaker(t, clock, &transitions)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)

	clock.now = clock.now.Add(11 * time.Second)
	require.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, circuitbreaker.StateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string
	b := newBreaker(t, clock, &transitions)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	clock.now = clock.now.Add(11 * time.Second)

	require.ErrorIs(t, b.Execute(ctx, fail), errDown)
	assert.Equal(t, circuitbreaker.StateOpen, b.State())
	require.ErrorIs(t, b.Execute(ctx, succeed), circuitbreaker.ErrCircuitOpen)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string
	b := newBreaker(t, clock, &transitions)
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, succeed)
	_ = b.Execute(ctx, fail)

	assert.Equal(t, circuitbreaker.StateClosed, b.State())
}

func TestBreaker_CancellationIsNotAFailure(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string
	b := newBreaker(t, clock, &transitions)

	for range 3 {
		_ = b.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	}
	assert.Equal(t, circuitbreaker.StateClosed, b.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.Execute(ctx, succeed), context.Canceled)
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string
	b := newBreaker(t, clock, &transitions)

	_ = b.Execute(context.Background(), fail)
	_ = b.Execute(context.Background(), fail)
	b.Reset()

	assert.Equal(t, circuitbreaker.StateClosed, b.State())
	require.NoError(t, b.Execute(context.Background(), succeed))
}
