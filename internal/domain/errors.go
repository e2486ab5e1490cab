package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("rental not found")
	ErrForbidden         = errors.New("only the property owner can update the rental")
	ErrIllegalTransition = errors.New("illegal rental state transition")
	ErrConflict          = errors.New("rental conflicts with another confirmed rental")
	ErrInvalidDate       = errors.New("date is in the past")
	ErrBusy              = errors.New("property is busy, try again later")
)

// TransitionError reports an event that is not legal from the current state.
type TransitionError struct {
	From  RentalState
	Event RentalEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a rental that is %s", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
