package service

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrNoMatch means the planner ranked zero recipes for the request.
	ErrNoMatch = errors.New("no matching recipes")
	// ErrSessionNotFound means the session id is unknown or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDependencyFailure means an external service or the recipe store failed.
	ErrDependencyFailure = errors.New("dependency failure")
	// ErrDependencyTimeout means an external call exceeded its deadline.
	ErrDependencyTimeout = errors.New("dependency timeout")
)

// DependencyError records which collaborator failed. It matches both its kind
// (ErrDependencyFailure or ErrDependencyTimeout) and the underlying cause with errors.Is.
type DependencyError struct {
	Dependency string
	Timeout    bool
	Err        error
}

func (e *DependencyError) Error() string {
	kind := ErrDependencyFailure
	if e.Timeout {
		kind = ErrDependencyTimeout
	}
	return fmt.Sprintf("%s: %s: %v", kind, e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() []error {
	if e.Timeout {
		return []error{ErrDependencyTimeout, e.Err}
	}
	return []error{ErrDependencyFailure, e.Err}
}

// dependencyError wraps err from the named dependency, classifying deadline
// expiry as a timeout. A nil err stays nil.
func dependencyError(dependency string, err error) error {
	if err == nil {
		return nil
	}
	var de *DependencyError
	if errors.As(err, &de) {
		return err
	}
	return &DependencyError{
		Dependency: dependency,
		Timeout:    isTimeout(err),
		Err:        err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// isBreakerRejection reports whether err came from an open or saturated circuit.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
