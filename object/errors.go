package object

import "errors"

// Errors.
var (
	ErrInvalidObject = errors.New("invalid object")
	ErrEmptyObject   = errors.New("object has no lines")
)
