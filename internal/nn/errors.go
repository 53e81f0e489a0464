package nn

import "github.com/pkg/errors"

// Common errors.
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrHeadsNotDivisible = errors.New("width not divisible by head count")
	ErrSequenceTooLong   = errors.New("sequence too long")
	ErrMaskShape         = errors.New("mask not broadcastable to attention scores")
	ErrTokenOutOfRange   = errors.New("token id out of vocabulary range")
	ErrInputShape        = errors.New("unexpected input shape")
	ErrStateDict         = errors.New("state dict mismatch")
)
