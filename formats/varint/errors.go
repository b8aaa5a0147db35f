package varint

import "errors"

// Common errors.
var (
	errEmptyBuf = errors.New("varint: buffer empty")
	errTooSmall = errors.New("varint: buffer too small")
)

type valueExceededError struct {
	max string
}

func (e *valueExceededError) Error() string {
	return "varint: encoded integer greater than " + e.max
}
