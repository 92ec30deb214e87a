package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrFetch       = errors.New("fetch label logs failed")
	ErrCredentials = errors.New("read credentials failed")
)
