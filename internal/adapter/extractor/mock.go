package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"faceid/internal/domain"
)

// MockExtractor derives one deterministic, unit-length embedding per frame
// from the frame bytes. Identical images always produce identical embeddings.
type MockExtractor struct {
	dimension int
}

func NewMockExtractor(dimension int) *MockExtractor {
	return &MockExtractor{dimension: dimension}
}

func (e *MockExtractor) Detect(ctx context.Context, frame domain.Frame) ([]domain.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(frame.Data) == 0 {
		return nil, nil
	}
	return []domain.Detection{{
		Box:       domain.Box{Width: 1, Height: 1},
		Score:     1,
		Embedding: e.embed(frame.Data),
	}}, nil
}

func (e *MockExtractor) embed(data []byte) []float32 {
	emb := make([]float32, e.dimension)
	seed := sha256.Sum256(data)

	var norm float64
	block := seed
	for i := range emb {
		if i > 0 && i%8 == 0 {
			block = sha256.Sum256(block[:])
		}
		v := binary.BigEndian.Uint32(block[(i%8)*4:])
		emb[i] = float32(v)/float32(math.MaxUint32) - 0.5
		norm += float64(emb[i]) * float64(emb[i])
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range emb {
			emb[i] *= scale
		}
	}
	return emb
}

func (e *MockExtractor) Ready() bool {
	return true
}

func (e *MockExtractor) Dimension() int {
	return e.dimension
}

func (e *MockExtractor) ModelName() string {
	return "mock"
}
