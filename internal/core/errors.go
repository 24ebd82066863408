package core

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned by stores when the requested row does not exist yet,
	// e.g. no blocks are indexed or no stats were aggregated.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArg marks malformed input: unknown stats kinds, reversed ranges, bad config values.
	ErrInvalidArg = errors.New("invalid arguments")
)
