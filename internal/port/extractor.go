package port

import (
	"context"

	"faceid/internal/domain"
)

// Extractor finds faces in a frame and computes their embeddings.
type Extractor interface {
	// Detect returns zero or more detections for the frame.
	Detect(ctx context.Context, frame domain.Frame) ([]domain.Detection, error)

	// Ready reports whether the detection models are loaded.
	Ready() bool

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// FrameSource yields frames for the recognition loop.
type FrameSource interface {
	Next(ctx context.Context) (domain.Frame, error)
}
