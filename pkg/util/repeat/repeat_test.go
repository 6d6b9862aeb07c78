package repeat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeat(t *testing.T) {
	calls := 0
	err := Repeat(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRepeatReturnsLastError(t *testing.T) {
	calls := 0
	err := Repeat(func() error {
		calls++
		return errors.New("down")
	}, 3, time.Millisecond)

	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestUntil(t *testing.T) {
	t.Run("done_early", func(t *testing.T) {
		var seen []int
		err := Until(context.Background(), 5, time.Millisecond, func(attempt int) (bool, error) {
			seen = append(seen, attempt)
			return attempt == 2, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("exhausted", func(t *testing.T) {
		calls := 0
		err := Until(context.Background(), 4, time.Millisecond, func(int) (bool, error) {
			calls++
			return false, nil
		})
		assert.ErrorIs(t, err, ErrAttemptsExhausted)
		assert.Equal(t, 4, calls)
	})

	t.Run("error_stops", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Until(context.Background(), 4, time.Millisecond, func(int) (bool, error) {
			calls++
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		start := time.Now()
		err := Until(ctx, 5, time.Hour, func(int) (bool, error) {
			calls++
			cancel()
			return false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
		assert.Less(t, time.Since(start), time.Minute)
	})
}
