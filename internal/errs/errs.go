// Package errs defines the error kinds reported while deriving forwarding
// addresses. Callers match them with errors.Is; every returned error wraps
// exactly one of these.
package errs

import "errors"

var (
	// ErrConfiguration means a compiled-in trust anchor failed to parse.
	// It indicates a build defect, not bad request input.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput means a caller supplied a value outside the accepted
	// domain (unknown environment, wrong chain code length, bad identifier).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDerivation means an HD derivation step produced no valid point.
	ErrDerivation = errors.New("derivation error")
)
