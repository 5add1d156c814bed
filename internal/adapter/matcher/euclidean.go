// Package matcher decides which enrolled identity, if any, a face embedding belongs to.
package matcher

import (
	"math"

	"faceid/internal/domain"
)

// Distance returns the Euclidean distance between a and b.
// A nil vector or a length mismatch yields +Inf so a bad embedding can never match.
func Distance(a, b []float32) float64 {
	if a == nil || b == nil || len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// BestMatch scans identities in order and reports the closest one.
// The boolean is false when identities is empty. On equal distances the
// earliest identity wins.
func BestMatch(query []float32, identities []domain.Identity, threshold float64) (domain.MatchResult, bool) {
	if len(identities) == 0 {
		return domain.MatchResult{}, false
	}

	best := -1
	minDistance := math.Inf(1)
	for i := range identities {
		d := Distance(query, identities[i].Embedding)
		if d < minDistance {
			minDistance = d
			best = i
		}
	}

	if best >= 0 && validThreshold(threshold) && minDistance <= threshold {
		return domain.MatchResult{
			Matched:    true,
			Name:       identities[best].Name,
			Distance:   minDistance,
			Confidence: Confidence(minDistance, threshold),
			ID:         identities[best].ID,
		}, true
	}

	return domain.MatchResult{
		Matched:    false,
		Name:       domain.UnknownName,
		Distance:   minDistance,
		Confidence: 0,
	}, true
}

// MatchAll matches every detection independently, preserving input order.
func MatchAll(detections []domain.Detection, identities []domain.Identity, threshold float64) []domain.FaceMatch {
	matches := make([]domain.FaceMatch, 0, len(detections))
	for _, det := range detections {
		fm := domain.FaceMatch{Detection: det}
		if result, ok := BestMatch(det.Embedding, identities, threshold); ok {
			r := result
			fm.Match = &r
		}
		matches = append(matches, fm)
	}
	return matches
}

// Confidence maps a distance to [0,100]: 100 at distance 0, 0 at the threshold and beyond.
func Confidence(distance, threshold float64) float64 {
	if !validThreshold(threshold) || math.IsNaN(distance) {
		return 0
	}
	c := (1 - distance/threshold) * 100
	return math.Max(0, math.Min(100, c))
}
