package navigation

import "github.com/pkg/errors"

// ErrHalted matches every error returned after the navigator halts on a fatal fault.
var ErrHalted = errors.New("navigation halted")

// HaltError carries the fault that halted the navigator.
type HaltError struct {
	Cause error
}

func (e *HaltError) Error() string {
	return ErrHalted.Error() + ": " + e.Cause.Error()
}

// Unwrap returns the fault.
func (e *HaltError) Unwrap() error {
	return e.Cause
}

// Is matches ErrHalted.
func (e *HaltError) Is(target error) bool {
	return target == ErrHalted
}
