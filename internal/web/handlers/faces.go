package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"faceid/internal/domain"
)

// FaceRegistry is the subset of the enrollment store the API needs.
type FaceRegistry interface {
	Enroll(name string, embedding []float32) (domain.Identity, error)
	Remove(id string) error
	Clear() error
	Rename(id, newName string) (domain.Identity, error)
	List() []domain.Identity
	Stats() (domain.Stats, error)
}

// FacesHandler serves enrollment CRUD.
type FacesHandler struct {
	registry FaceRegistry
	logger   *slog.Logger
}

func NewFacesHandler(registry FaceRegistry, logger *slog.Logger) *FacesHandler {
	return &FacesHandler{registry: registry, logger: logger}
}

// FaceResponse is the API view of an identity.
type FaceResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Dimension  int       `json:"dimension"`
	Descriptor []float32 `json:"descriptor,omitempty"`
}

func newFaceResponse(f domain.Identity, withDescriptor bool) FaceResponse {
	resp := FaceResponse{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		Dimension: len(f.Embedding),
	}
	if withDescriptor {
		resp.Descriptor = f.Embedding
	}
	return resp
}

// List returns all faces; ?descriptors=true includes the embeddings.
func (h *FacesHandler) List(w http.ResponseWriter, r *http.Request) {
	withDescriptor := r.URL.Query().Get("descriptors") == "true"

	faces := h.registry.List()
	resp := make([]FaceResponse, len(faces))
	for i, f := range faces {
		resp[i] = newFaceResponse(f, withDescriptor)
	}
	respondJSON(w, http.StatusOK, resp)
}

type createFaceRequest struct {
	Name       string    `json:"name"`
	Descriptor []float32 `json:"descriptor"`
}

func (h *FacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity, err := h.registry.Enroll(req.Name, req.Descriptor)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, newFaceResponse(identity, false))
}

type renameFaceRequest struct {
	Name string `json:"name"`
}

func (h *FacesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req renameFaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity, err := h.registry.Rename(id, req.Name)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, newFaceResponse(identity, false))
}

func (h *FacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Remove(chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FacesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Clear(); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
