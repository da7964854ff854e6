package core

import (
	"context"
	"time"
)

// ReadyWaiter blocks until ready reports true.
// name identifies the peripheral for error reporting.
type ReadyWaiter func(name string, ready func() bool) error

// PollForever spins until the peripheral reports ready. There is no way out
// if it never does; this is the bare-metal default.
func PollForever(name string, ready func() bool) error {
	for !ready() {
	}
	return nil
}

// PollLimit returns a waiter that gives up after limit polls.
// Usable on targets without a running clock.
func PollLimit(limit int) ReadyWaiter {
	return func(name string, ready func() bool) error {
		for i := 0; i < limit; i++ {
			if ready() {
				return nil
			}
		}
		return notReady(name)
	}
}

// PollTimeout returns a waiter bounded by wall-clock time
func PollTimeout(timeout time.Duration) ReadyWaiter {
	return func(name string, ready func() bool) error {
		deadline := time.Now().Add(timeout)
		for {
			if ready() {
				return nil
			}
			if time.Now().After(deadline) {
				return notReady(name)
			}
		}
	}
}

// PollContext returns a waiter that stops when ctx is done
func PollContext(ctx context.Context) ReadyWaiter {
	return func(name string, ready func() bool) error {
		for {
			if ready() {
				return nil
			}
			select {
			case <-ctx.Done():
				return &NotReadyError{Peripheral: name, Cause: ctx.Err()}
			default:
			}
		}
	}
}

// NotReadyError reports a peripheral that never signalled ready
type NotReadyError struct {
	Peripheral string
	Cause      error
}

func (e *NotReadyError) Error() string {
	msg := "peripheral not ready: " + e.Peripheral
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrPeripheralNotReady) hold for every NotReadyError
func (e *NotReadyError) Is(target error) bool {
	return target == ErrPeripheralNotReady
}

func (e *NotReadyError) Unwrap() error {
	return e.Cause
}

func notReady(name string) error {
	return &NotReadyError{Peripheral: name}
}
