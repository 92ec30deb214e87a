package sample

import "errors"

// Sentinel kinds for sample generation.
var (
	ErrInvalidConfig = errors.New("invalid sample config")
	ErrWrite         = errors.New("write sample failed")
)
