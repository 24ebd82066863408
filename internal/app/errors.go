package app

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SchedulingError is returned when a repeatable job cannot be registered.
type SchedulingError struct {
	Updater string
	Err     error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s: cannot schedule repeatable job: %s", e.Updater, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

// CloseError holds every failed step of a teardown.
type CloseError struct {
	Component string
	Errs      []error
}

func (e *CloseError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: failed to close: %s", e.Component, strings.Join(msgs, "; "))
}

func (e *CloseError) Unwrap() []error { return e.Errs }

// StartError is returned when the stats syncer cannot schedule its updaters.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("stats syncer: failed to start: %s", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

type TeardownStep struct {
	Name string
	Run  func() error
}

// Teardown runs every step even if previous ones failed.
// Failures are collected into a CloseError.
func Teardown(component string, steps ...TeardownStep) error {
	var errs []error

	for _, step := range steps {
		if err := step.Run(); err != nil {
			errs = append(errs, errors.Wrap(err, step.Name))
		}
	}

	if len(errs) > 0 {
		return &CloseError{Component: component, Errs: errs}
	}
	return nil
}
