package scene

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError reports an unmet precondition. The operator aborts and the
// message is meant for the user.
type ValidationError struct {
	Op  string
	Msg string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

func Validationf(op string, format string, args ...interface{}) error {
	return &ValidationError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// StateError reports an idempotency violation, e.g. splitting an object twice.
// It is always raised before any mutation.
type StateError struct {
	Op  string
	Msg string
}

func (e *StateError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

func Statef(op string, format string, args ...interface{}) error {
	return &StateError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IOError wraps a failed export write for a single target.
type IOError struct {
	Target string
	Path   string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("export %q to %q: %v", e.Target, e.Path, e.Err)
}

func (e *IOError) Cause() error  { return e.Err }
func (e *IOError) Unwrap() error { return e.Err }

// NamingCollisionError reports two export targets resolving to the same file name.
type NamingCollisionError struct {
	Name   string
	First  string
	Second string
}

func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("output name %q of %q collides with %q", e.Name, e.Second, e.First)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsState(err error) bool {
	var v *StateError
	return errors.As(err, &v)
}

func IsIO(err error) bool {
	var v *IOError
	return errors.As(err, &v)
}

func IsNamingCollision(err error) bool {
	var v *NamingCollisionError
	return errors.As(err, &v)
}
