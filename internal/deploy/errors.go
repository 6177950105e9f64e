package deploy

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession = errors.New("no remote session configured")
	ErrNoBuilder = errors.New("no builder configured")
)

// StepError names the step an operation halted at.
type StepError struct {
	Operation string
	Step      string
	Seq       int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s halted at step %s: %v", e.Operation, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
