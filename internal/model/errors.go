package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHorizon = errors.New("horizon must be positive")
	ErrInvalidBudget  = errors.New("budget must be non-negative")
)

// ComponentError records which planning component rejected which input.
type ComponentError struct {
	Component string
	Input     string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %v", e.Component, e.Input, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

// InvalidHorizon builds the error returned for a non-positive horizon.
func InvalidHorizon(component string, horizon int) error {
	return &ComponentError{
		Component: component,
		Input:     "horizon",
		Err:       fmt.Errorf("%w (got %d)", ErrInvalidHorizon, horizon),
	}
}
