// Package apperr defines the sentinel errors shared across Gebo layers.
package apperr

import "errors"

var (
	// ErrDuplicateName is returned by add and rename when the target
	// name is already taken.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrNotFound is returned when operating on an absent comp.
	ErrNotFound = errors.New("not found")
	// ErrLastComp is returned by delete when it would empty the store.
	ErrLastComp = errors.New("cannot delete the last comp")
	// ErrInvalidPayload is returned when a clipboard payload does not
	// parse as the expected shape.
	ErrInvalidPayload = errors.New("invalid payload")
)
