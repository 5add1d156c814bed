// Package handlers implements the JSON HTTP API over the enrollment store and matcher.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"faceid/internal/domain"
	"faceid/internal/port"
)

const errInvalidRequestBody = "invalid request body"

// maxBodyBytes bounds request bodies; a 128-float descriptor is a few KB.
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrDimensionMismatch),
		errors.Is(err, domain.ErrInvalidThreshold):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

// HealthHandler reports liveness and extractor readiness.
type HealthHandler struct {
	extractor port.Extractor
}

// NewHealthHandler creates a health handler. extractor may be nil when the
// server runs without one.
func NewHealthHandler(extractor port.Extractor) *HealthHandler {
	return &HealthHandler{extractor: extractor}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.extractor != nil {
		resp["extractor_ready"] = h.extractor.Ready()
		resp["model"] = h.extractor.ModelName()
	}
	respondJSON(w, http.StatusOK, resp)
}
