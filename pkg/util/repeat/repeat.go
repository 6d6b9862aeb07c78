package repeat

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted is returned by Until when f never reported done.
var ErrAttemptsExhausted = errors.New("attempts exhausted")

// Repeat calls f up to attempts times, sleeping delay between failures.
func Repeat(f func() error, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}

	return err
}

// Until calls f up to attempts times, waiting delay between calls, and stops
// as soon as f reports done or returns an error. The wait is cut short when
// ctx is cancelled.
func Until(ctx context.Context, attempts int, delay time.Duration, f func(attempt int) (bool, error)) error {
	for i := 1; i <= attempts; i++ {
		done, err := f(i)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return ErrAttemptsExhausted
}
