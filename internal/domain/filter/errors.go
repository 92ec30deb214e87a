package filter

import "errors"

// Sentinel kinds for filter errors.
var (
	ErrMalformedEvent = errors.New("malformed event")
)
