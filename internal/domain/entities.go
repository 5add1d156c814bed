package domain

import (
	"encoding/json"
	"math"
	"time"
)

// UnknownName is reported for a face whose closest identity is beyond the threshold.
const UnknownName = "Unknown"

// Identity is an enrolled face.
type Identity struct {
	ID        string
	Name      string
	Embedding []float32
	CreatedAt time.Time
}

// Clone returns a copy that shares no memory with i.
func (i Identity) Clone() Identity {
	c := i
	if i.Embedding != nil {
		c.Embedding = make([]float32, len(i.Embedding))
		copy(c.Embedding, i.Embedding)
	}
	return c
}

// Record is the persisted shape of an Identity.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Descriptor []float32 `json:"descriptor"`
	Timestamp  time.Time `json:"timestamp"`
}

func (i Identity) Record() Record {
	c := i.Clone()
	return Record{
		ID:         c.ID,
		Name:       c.Name,
		Descriptor: c.Embedding,
		Timestamp:  c.CreatedAt,
	}
}

func (r Record) Identity() Identity {
	return Identity{
		ID:        r.ID,
		Name:      r.Name,
		Embedding: r.Descriptor,
		CreatedAt: r.Timestamp,
	}.Clone()
}

// MatchResult is the outcome of comparing one query embedding against the enrolled set.
type MatchResult struct {
	Matched    bool    `json:"matched"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
	ID         string  `json:"id,omitempty"`
}

// MarshalJSON encodes an infinite distance as null, which encoding/json cannot represent.
func (m MatchResult) MarshalJSON() ([]byte, error) {
	type alias MatchResult
	out := struct {
		alias
		Distance *float64 `json:"distance"`
	}{alias: alias(m)}
	if !math.IsInf(m.Distance, 0) && !math.IsNaN(m.Distance) {
		d := m.Distance
		out.Distance = &d
	}
	return json.Marshal(out)
}

// Box is a detection bounding box in frame pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one face found in a frame by the extractor.
type Detection struct {
	Box       Box       `json:"box"`
	Score     float64   `json:"score"`
	Embedding []float32 `json:"-"`
}

// FaceMatch pairs a detection with its match. Match is nil when nothing is enrolled.
type FaceMatch struct {
	Detection Detection    `json:"detection"`
	Match     *MatchResult `json:"match"`
}

// Frame is a single captured image.
type Frame struct {
	Source     string
	Data       []byte
	CapturedAt time.Time
}

// Stats summarizes the enrollment store for display.
type Stats struct {
	Count     int     `json:"count"`
	StorageKB float64 `json:"storage_kb"`
	Dimension int     `json:"dimension"`
}
