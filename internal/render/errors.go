package render

import "errors"

var (
	// ErrInvalidArgument marks precondition failures (bad pivot, canvas size, colors, list lengths).
	ErrInvalidArgument = errors.New("render: invalid argument")
	// ErrSurface marks failures of the drawing surface itself (allocation, encoding, use after release).
	ErrSurface = errors.New("render: surface failure")
)
