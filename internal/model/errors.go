package model

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrUnsupported is returned when an operation is not available on the current platform.
	ErrUnsupported = errors.New("unsupported")
	// ErrCancelled is returned when an operation was cancelled by the operator.
	ErrCancelled = errors.New("cancelled")
	// ErrAlreadyRunning is returned when a task is launched while another one is in flight.
	ErrAlreadyRunning = errors.New("already running")
)

// IsCancel reports whether an error represents an operator cancellation.
//
// Errors produced inside this application wrap ErrCancelled, so errors.Is is
// authoritative. Errors coming back from a foreign backend only carry text, so
// we fall back to matching the usual cancellation vocabulary.
func IsCancel(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, word := range []string{"cancelled", "canceled", "aborted by user"} {
		if strings.Contains(msg, word) {
			return true
		}
	}
	return false
}
