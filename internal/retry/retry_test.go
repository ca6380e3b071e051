package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayGrowsStrictly(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, Exponential: true}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Greater(t, p.Delay(3), p.Delay(2))
	assert.Greater(t, p.Delay(4), p.Delay(3))
}

func TestDelayCapped(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 4 * time.Second, Exponential: true}

	assert.Equal(t, 4*time.Second, p.Delay(5))
	assert.Equal(t, 4*time.Second, p.Delay(9))
}

func TestDelayFixed(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

	assert.Equal(t, 500*time.Millisecond, p.Delay(2))
	assert.Equal(t, 500*time.Millisecond, p.Delay(3))
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtCeiling(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	boom := errors.New("still down")
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		return boom
	}, nil)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, attempts)
}

func TestDoPermanentErrorNotRetried(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	boom := errors.New("rejected")
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	}, func(err error) bool { return false })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContext(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Do(ctx, func(context.Context) error {
		return errors.New("transient")
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
}
