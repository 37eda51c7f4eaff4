package wm

import "errors"

var (
	// ErrDuplicateID is returned by CreateWindow when the id is taken.
	ErrDuplicateID = errors.New("duplicate window id")
	// ErrUnknownWindow is returned when an operation targets a missing window.
	ErrUnknownWindow = errors.New("unknown window id")
	// ErrEmptyID is returned by CreateWindow for a blank id.
	ErrEmptyID = errors.New("empty window id")
)
