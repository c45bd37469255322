package core

import "errors"

// Error kinds surfaced by the feed, strategy, and risk/broker layers.
// Validation errors abort a run before the loop starts; the rest are
// checked with errors.Is by callers that need to distinguish them.
var (
	ErrValidation          = errors.New("core: validation error")
	ErrUnknownSymbol       = errors.New("core: unknown symbol")
	ErrFeedNotAttached     = errors.New("core: feed not attached")
	ErrInsufficientHistory = errors.New("core: insufficient history")
)
