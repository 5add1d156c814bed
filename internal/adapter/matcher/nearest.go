package matcher

import (
	"math"
	"sort"

	"faceid/internal/domain"
)

// Candidate is an enrolled identity ranked by distance to a query.
type Candidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// Nearest returns up to k identities closest to query, nearest first.
// Equal distances keep enrollment order. Identities whose embedding cannot
// be compared with query are left out.
func Nearest(query []float32, identities []domain.Identity, k int) []Candidate {
	if k <= 0 || len(identities) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(identities))
	for _, id := range identities {
		d := Distance(query, id.Embedding)
		if math.IsInf(d, 1) {
			continue
		}
		candidates = append(candidates, Candidate{ID: id.ID, Name: id.Name, Distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
