package metadata

import "errors"

var (
	// ErrInvalidArgument is returned by Build when the accumulated values cannot
	// describe a valid image
	ErrInvalidArgument = errors.New("invalid metadata")

	// ErrIndexOutOfRange is returned when a level or channel index is outside
	// the stored sequence
	ErrIndexOutOfRange = errors.New("index out of range")
)
