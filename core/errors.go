package core

import "errors"

// ErrNotReady signals that the Discord gateway connection is not established
// yet. Recoverable: callers should retry after a short backoff.
var ErrNotReady = errors.New("the connection with Discord is not ready")

// ErrReactionTimeout signals that no matching reaction arrived within the
// caller-supplied deadline. Terminal for that call, not fatal to the daemon.
var ErrReactionTimeout = errors.New("reaction timeout")

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// IsNotReadyError checks if an error is a gateway-not-ready error
func IsNotReadyError(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsTimeoutError checks if an error is a reaction wait timeout
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrReactionTimeout)
}
