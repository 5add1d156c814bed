package usecase

import (
	"math"

	"faceid/internal/adapter/matcher"
	"faceid/internal/domain"
)

// IdentitySnapshotter provides a read-only snapshot of enrolled identities.
type IdentitySnapshotter interface {
	List() []domain.Identity
}

// MatchUseCase matches embeddings against the current enrollment snapshot.
type MatchUseCase struct {
	identities IdentitySnapshotter
}

// NewMatchUseCase creates a new match use case.
func NewMatchUseCase(identities IdentitySnapshotter) *MatchUseCase {
	return &MatchUseCase{identities: identities}
}

// Match returns one result per query, in order. Entries are nil when nothing is enrolled.
func (u *MatchUseCase) Match(queries [][]float32, threshold float64) ([]*domain.MatchResult, error) {
	if err := matcher.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	snapshot := u.identities.List()
	results := make([]*domain.MatchResult, len(queries))
	for i, q := range queries {
		if r, ok := matcher.BestMatch(q, snapshot, threshold); ok {
			results[i] = &r
		}
	}
	return results, nil
}

// MatchDetections pairs every detection with its match.
func (u *MatchUseCase) MatchDetections(detections []domain.Detection, threshold float64) ([]domain.FaceMatch, error) {
	if err := matcher.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return matcher.MatchAll(detections, u.identities.List(), threshold), nil
}

// Candidates returns the k enrolled identities nearest to each query,
// regardless of threshold.
func (u *MatchUseCase) Candidates(queries [][]float32, k int) [][]matcher.Candidate {
	snapshot := u.identities.List()
	out := make([][]matcher.Candidate, len(queries))
	for i, q := range queries {
		out[i] = matcher.Nearest(q, snapshot, k)
	}
	return out
}

// MatchResultView is a flattened result for CLI and API output.
type MatchResultView struct {
	Index           int      `json:"index"`
	Matched         bool     `json:"matched"`
	Name            string   `json:"name"`
	ID              string   `json:"id,omitempty"`
	Distance        *float64 `json:"distance"`
	Confidence      float64  `json:"confidence"`
	ConfidenceLevel string   `json:"confidence_level"`
	NoResult        bool     `json:"no_result,omitempty"`

	Candidates []matcher.Candidate `json:"candidates,omitempty"`
}

// NewMatchResultView flattens r; a nil r becomes a no-result view.
func NewMatchResultView(index int, r *domain.MatchResult) MatchResultView {
	if r == nil {
		return MatchResultView{Index: index, Name: domain.UnknownName, NoResult: true, ConfidenceLevel: matcher.ConfidenceLevel(0)}
	}
	v := MatchResultView{
		Index:           index,
		Matched:         r.Matched,
		Name:            r.Name,
		ID:              r.ID,
		Confidence:      r.Confidence,
		ConfidenceLevel: matcher.ConfidenceLevel(r.Confidence),
	}
	if !math.IsInf(r.Distance, 0) && !math.IsNaN(r.Distance) {
		d := r.Distance
		v.Distance = &d
	}
	return v
}
