package types

import (
	"errors"
	"fmt"
)

// Construction and validation errors.
var (
	ErrInvalidTask        = errors.New("invalid task information")
	ErrInvalidCommand     = errors.New("invalid command")
	ErrInvalidState       = errors.New("invalid state value")
	ErrInvalidType        = errors.New("invalid task type")
	ErrDuplicateTask      = errors.New("task id already exists")
	ErrInvalidProductName = errors.New("invalid product name")
	ErrDuplicateProduct   = errors.New("product has the same name as another")
)

// Catalog errors.
var (
	ErrNoProducts    = errors.New("no products available")
	ErrNoSelection   = errors.New("no product selected")
	ErrNothingToSave = errors.New("nothing to save")
)

// ErrInvalidTransition is the sentinel wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports a command that the task's current state does not
// accept. It signals a caller logic error rather than bad input data.
type TransitionError struct {
	From State
	Kind CommandKind
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s does not accept %s", ErrInvalidTransition, e.From, e.Kind)
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
