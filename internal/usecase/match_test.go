package usecase

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceid/internal/adapter/matcher"
	"faceid/internal/adapter/memstore"
	"faceid/internal/domain"
	"faceid/internal/port"
)

var _ port.Matcher = (*MatchUseCase)(nil)

func enrolledPair(t *testing.T) *EnrollmentUseCase {
	t.Helper()
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 2)
	_, err := u.Enroll("Alice", []float32{0, 0})
	require.NoError(t, err)
	_, err = u.Enroll("Bob", []float32{1, 0})
	require.NoError(t, err)
	return u
}

func TestMatch_ClosestWithinThreshold(t *testing.T) {
	m := NewMatchUseCase(enrolledPair(t))

	results, err := m.Match([][]float32{{0.3, 0}}, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0])

	r := results[0]
	assert.True(t, r.Matched)
	assert.Equal(t, "Alice", r.Name)
	assert.Equal(t, "face_1", r.ID)
	assert.InDelta(t, 0.3, r.Distance, 1e-6)
	assert.InDelta(t, 50.0, r.Confidence, 1e-4)
}

func TestMatch_BeyondThresholdIsUnknown(t *testing.T) {
	m := NewMatchUseCase(enrolledPair(t))

	results, err := m.Match([][]float32{{0.5, 0.5}}, 0.6)
	require.NoError(t, err)
	require.NotNil(t, results[0])
	assert.False(t, results[0].Matched)
	assert.Equal(t, domain.UnknownName, results[0].Name)
	assert.Zero(t, results[0].Confidence)
	assert.InDelta(t, 0.7071, results[0].Distance, 1e-4)
}

func TestMatch_BatchPreservesOrder(t *testing.T) {
	m := NewMatchUseCase(enrolledPair(t))

	results, err := m.Match([][]float32{{0.95, 0}, {5, 5}, {0.05, 0}}, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Bob", results[0].Name)
	assert.Equal(t, domain.UnknownName, results[1].Name)
	assert.Equal(t, "Alice", results[2].Name)
}

func TestMatch_EmptyStoreYieldsNoResult(t *testing.T) {
	m := NewMatchUseCase(newTestEnrollment(t, memstore.NewMemoryStore(), 2))

	results, err := m.Match([][]float32{{0, 0}, {1, 1}}, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Nil(t, results[0])
	assert.Nil(t, results[1])
}

func TestMatch_InvalidThreshold(t *testing.T) {
	m := NewMatchUseCase(enrolledPair(t))

	_, err := m.Match([][]float32{{0, 0}}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)

	_, err = m.MatchDetections(nil, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
}

func TestMatch_SeesLatestEnrollment(t *testing.T) {
	enroll := enrolledPair(t)
	m := NewMatchUseCase(enroll)

	_, err := enroll.Enroll("Carol", []float32{3, 3})
	require.NoError(t, err)

	results, err := m.Match([][]float32{{3, 3}}, 0.6)
	require.NoError(t, err)
	assert.Equal(t, "Carol", results[0].Name)

	require.NoError(t, enroll.Clear())
	results, err = m.Match([][]float32{{3, 3}}, 0.6)
	require.NoError(t, err)
	assert.Nil(t, results[0])
}

func TestMatchDetections(t *testing.T) {
	m := NewMatchUseCase(enrolledPair(t))

	detections := []domain.Detection{
		{Box: domain.Box{X: 1, Y: 2, Width: 10, Height: 10}, Score: 0.9, Embedding: []float32{1, 0.1}},
		{Score: 0.8, Embedding: []float32{9, 9}},
	}
	matches, err := m.MatchDetections(detections, 0.6)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, 1.0, matches[0].Detection.Box.X)
	assert.Equal(t, "Bob", matches[0].Match.Name)
	assert.False(t, matches[1].Match.Matched)
}

func TestNewMatchResultView(t *testing.T) {
	v := NewMatchResultView(0, nil)
	assert.True(t, v.NoResult)
	assert.Equal(t, domain.UnknownName, v.Name)
	assert.Nil(t, v.Distance)

	v = NewMatchResultView(2, &domain.MatchResult{Matched: true, Name: "Alice", Distance: 0.3, Confidence: 50, ID: "face_1"})
	assert.Equal(t, 2, v.Index)
	require.NotNil(t, v.Distance)
	assert.Equal(t, 0.3, *v.Distance)
	assert.Equal(t, "Medium", v.ConfidenceLevel)

	data, err := json.Marshal(NewMatchResultView(1, &domain.MatchResult{Name: domain.UnknownName, Distance: math.Inf(1)}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"distance":null`)
}

func TestCandidates(t *testing.T) {
	m := NewMatchUseCase(enrolledPair(t))

	got := m.Candidates([][]float32{{0.9, 0}, {0, 0}}, 1)
	require.Len(t, got, 2)
	require.Len(t, got[0], 1)
	assert.Equal(t, "Bob", got[0][0].Name)
	assert.Equal(t, "Alice", got[1][0].Name)

	empty := NewMatchUseCase(newTestEnrollment(t, memstore.NewMemoryStore(), 2))
	assert.Equal(t, [][]matcher.Candidate{nil}, empty.Candidates([][]float32{{0, 0}}, 3))
}
