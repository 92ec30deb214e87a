package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownReport = errors.New("unknown report")
	ErrNoSource      = errors.New("no event source configured")
)
