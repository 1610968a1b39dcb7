package model

import "errors"

// Input validation errors. Callers correct the input and resubmit.
var (
	ErrTooFewPositions = errors.New("at least two positions are required to mediate")
	ErrMissingDomain   = errors.New("domain is required")
	ErrInvalidInput    = errors.New("invalid input")
)

// State errors returned by the dispute and challenge stores.
var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("conflicting state transition")
	ErrExpired     = errors.New("record expired")
	ErrRateLimited = errors.New("submission rate limit exceeded")
)
