package tensor

import "github.com/pkg/errors"

// Common errors. Kernels panic with one of these wrapped; public entry points
// recover them into regular error returns.
var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidAxis     = errors.New("invalid axis")
)
