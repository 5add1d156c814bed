package port

import "faceid/internal/domain"

// FaceStorage persists the enrollment listing as a whole.
type FaceStorage interface {
	// Load returns the persisted listing in insertion order.
	Load() ([]domain.Record, error)

	// Save replaces the persisted listing.
	Save(records []domain.Record) error

	// RemoveAll deletes the persisted listing.
	RemoveAll() error

	Close() error
}
