package port

import "faceid/internal/domain"

// Matcher matches query embeddings against the current enrollment snapshot.
// A nil entry means nothing was enrolled to compare against.
type Matcher interface {
	Match(queries [][]float32, threshold float64) ([]*domain.MatchResult, error)
}
