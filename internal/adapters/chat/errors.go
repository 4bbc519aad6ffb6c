package chat

import "errors"

// Sentinel kinds for chat transport errors.
var (
	ErrAwaitTimeout = errors.New("no qualifying response before timeout")
	ErrUnavailable  = errors.New("chat surface unavailable")
)
