package handlers

import (
	"log/slog"
	"net/http"

	"faceid/internal/adapter/matcher"
	"faceid/internal/domain"
	"faceid/internal/port"
	"faceid/internal/usecase"
)

// Matcher matches descriptors and ranks nearest candidates.
type Matcher interface {
	port.Matcher
	Candidates(queries [][]float32, k int) [][]matcher.Candidate
}

// MatchHandler serves matching and threshold information.
type MatchHandler struct {
	matcher   Matcher
	registry  FaceRegistry
	threshold float64
	logger    *slog.Logger
}

// NewMatchHandler creates a match handler. threshold is used when a request
// names neither a threshold nor a security level.
func NewMatchHandler(m Matcher, registry FaceRegistry, threshold float64, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matcher: m, registry: registry, threshold: threshold, logger: logger}
}

type matchRequest struct {
	Descriptors   [][]float32 `json:"descriptors"`
	Threshold     *float64    `json:"threshold,omitempty"`
	SecurityLevel string      `json:"security_level,omitempty"`
	Candidates    int         `json:"candidates,omitempty"`
}

type matchResponse struct {
	Threshold float64                   `json:"threshold"`
	Results   []usecase.MatchResultView `json:"results"`
}

func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	threshold := h.threshold
	switch {
	case req.Threshold != nil:
		threshold = *req.Threshold
	case req.SecurityLevel != "":
		threshold = matcher.ThresholdForSecurityLevel(req.SecurityLevel)
	}

	results, err := h.matcher.Match(req.Descriptors, threshold)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	resp := matchResponse{Threshold: threshold, Results: make([]usecase.MatchResultView, len(results))}
	for i, res := range results {
		resp.Results[i] = usecase.NewMatchResultView(i, res)
	}
	if req.Candidates > 0 {
		for i, c := range h.matcher.Candidates(req.Descriptors, req.Candidates) {
			resp.Results[i].Candidates = c
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	domain.Stats
	Threshold float64 `json:"threshold"`
}

func (h *MatchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats()
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Stats: stats, Threshold: h.threshold})
}

func (h *MatchHandler) Presets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"presets": matcher.Presets,
		"default": matcher.DefaultThreshold,
		"current": h.threshold,
		"min":     matcher.MinSliderThreshold,
		"max":     matcher.MaxSliderThreshold,
	})
}
