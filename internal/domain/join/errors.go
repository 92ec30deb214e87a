package join

import "errors"

// Sentinel kinds for join errors.
var (
	ErrUnknownPolicy = errors.New("unknown join policy")
)
