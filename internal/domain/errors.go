package domain

import "errors"

var (
	// ErrNotReady is returned when the extractor has no models loaded.
	ErrNotReady = errors.New("extractor not ready")

	ErrInvalidThreshold  = errors.New("threshold must be a positive number")
	ErrEmptyName         = errors.New("name is required")
	ErrDuplicateName     = errors.New("name already exists")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNotFound          = errors.New("identity not found")

	// ErrPersistence marks storage read/write failures. The store is left unchanged.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError carries a user-facing reason for a rejected enroll or rename.
type ValidationError struct {
	Err    error
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
