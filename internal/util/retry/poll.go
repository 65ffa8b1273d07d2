package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is matched by every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("timed out")

// TimeoutError reports that a polled condition never held before its deadline.
type TimeoutError struct {
	// Description names what was being waited for, e.g. "instance i-0abc running".
	Description string
	Timeout     time.Duration
	Elapsed     time.Duration
	Attempts    int
	// LastStatus is the last status the condition reported, if any.
	LastStatus string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s (%d checks)", e.Timeout, e.Description, e.Attempts)
	if e.LastStatus != "" {
		msg += fmt.Sprintf(", last status %q", e.LastStatus)
	}
	return msg
}

// Is makes errors.Is(err, ErrTimeout) true for any TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Condition is evaluated once per poll tick. It returns the observed status,
// whether the wait is satisfied, and an error that aborts the wait.
type Condition func(ctx context.Context) (status string, done bool, err error)

// Clock abstracts time so poll loops can be driven by tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// PollConfig holds poll loop configuration.
type PollConfig struct {
	Description string
	Clock       Clock
	// OnTick is called after every unsatisfied check with the observed status.
	OnTick func(status string, elapsed time.Duration)
}

// PollOption is a functional option for Poll.
type PollOption func(*PollConfig)

// WithDescription names the awaited condition in timeout errors.
func WithDescription(desc string) PollOption {
	return func(c *PollConfig) {
		c.Description = desc
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) PollOption {
	return func(c *PollConfig) {
		c.Clock = clock
	}
}

// WithOnTick registers a callback invoked after each unsatisfied check.
func WithOnTick(fn func(status string, elapsed time.Duration)) PollOption {
	return func(c *PollConfig) {
		c.OnTick = fn
	}
}

// Poll evaluates condition immediately and then once per interval until it
// reports done, returns an error, or more than timeout has elapsed since the
// first check. The first check always happens, even with a zero timeout.
func Poll(ctx context.Context, interval, timeout time.Duration, condition Condition, opts ...PollOption) error {
	cfg := &PollConfig{
		Description: "condition",
		Clock:       realClock{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", interval)
	}

	start := cfg.Clock.Now()
	attempts := 0
	var lastStatus string

	for {
		status, done, err := condition(ctx)
		attempts++
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		lastStatus = status

		elapsed := cfg.Clock.Now().Sub(start)
		if elapsed > timeout {
			return &TimeoutError{
				Description: cfg.Description,
				Timeout:     timeout,
				Elapsed:     elapsed,
				Attempts:    attempts,
				LastStatus:  lastStatus,
			}
		}
		if cfg.OnTick != nil {
			cfg.OnTick(status, elapsed)
		}

		if err := cfg.Clock.Sleep(ctx, interval); err != nil {
			return fmt.Errorf("waiting for %s: %w", cfg.Description, err)
		}
	}
}
