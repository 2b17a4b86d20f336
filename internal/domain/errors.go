package domain

import "errors"

var (
	// ErrConfiguration covers a missing credential and upstream auth/quota rejections.
	// Callers should prompt for a different credential.
	ErrConfiguration = errors.New("credential missing or rejected")
	// ErrUpstream covers timeouts, non-success responses and malformed payloads
	// from the external generator.
	ErrUpstream = errors.New("upstream generation failed")
	// ErrInvalidInput is returned when a request fails field validation
	ErrInvalidInput = errors.New("invalid input")
)
