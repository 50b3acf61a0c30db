package pluginstate

import "errors"

// Sentinel errors returned by the State Store and Scope Resolver.
//
// NotFound is not among them: a missing channel/global file with no
// applicable inheritance is a successful (nil, nil) return, not an error.
var (
	ErrInvalidIdentifier = errors.New("pluginstate: invalid identifier")
	ErrIOFailure         = errors.New("pluginstate: io failure")
	ErrCorruptData       = errors.New("pluginstate: corrupt data")
	ErrReducerRequired   = errors.New("pluginstate: reducer required")
)
