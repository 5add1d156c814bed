package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/text/cases"

	"faceid/internal/domain"
	"faceid/internal/port"
)

// EnrollmentUseCase is the enrollment store: an ordered set of named
// embeddings kept in memory and written through to FaceStorage.
type EnrollmentUseCase struct {
	mu        sync.RWMutex
	storage   port.FaceStorage
	logger    *slog.Logger
	faces     []domain.Identity
	dimension int

	now   func() time.Time
	newID func(time.Time) string
}

// NewEnrollmentUseCase loads the persisted listing. A read failure is logged
// and the store starts empty. A dimension of 0 is fixed by the first
// enrolled embedding.
func NewEnrollmentUseCase(storage port.FaceStorage, dimension int, logger *slog.Logger) *EnrollmentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	u := &EnrollmentUseCase{
		storage:   storage,
		logger:    logger,
		dimension: dimension,
		now:       time.Now,
		newID:     newFaceID,
	}

	records, err := storage.Load()
	if err != nil {
		logger.Warn("failed to load enrolled faces, starting empty", "error", err)
		return u
	}

	for _, r := range records {
		id := r.Identity()
		if u.dimension == 0 {
			u.dimension = len(id.Embedding)
		}
		if len(id.Embedding) != u.dimension {
			logger.Warn("enrolled face has unexpected embedding size; it will never match",
				"id", id.ID, "name", id.Name, "got", len(id.Embedding), "want", u.dimension)
		}
		u.faces = append(u.faces, id)
	}
	logger.Debug("loaded enrolled faces", "count", len(u.faces))
	return u
}

func newFaceID(t time.Time) string {
	return fmt.Sprintf("face_%d_%s", t.UnixMilli(), strings.ToLower(shortuuid.New()[:9]))
}

func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Enroll validates and appends a new identity.
func (u *EnrollmentUseCase) Enroll(name string, embedding []float32) (domain.Identity, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	name = strings.TrimSpace(name)
	if err := u.validateName(name, ""); err != nil {
		return domain.Identity{}, err
	}
	if err := u.validateEmbedding(embedding); err != nil {
		return domain.Identity{}, err
	}

	created := u.now()
	identity := domain.Identity{
		ID:        u.newID(created),
		Name:      name,
		Embedding: embedding,
		CreatedAt: created,
	}.Clone()

	next := make([]domain.Identity, len(u.faces), len(u.faces)+1)
	copy(next, u.faces)
	next = append(next, identity)

	if err := u.persist(next); err != nil {
		return domain.Identity{}, err
	}
	if u.dimension == 0 {
		u.dimension = len(identity.Embedding)
	}
	u.faces = next

	u.logger.Info("face enrolled", "id", identity.ID, "name", identity.Name)
	return identity.Clone(), nil
}

// Remove deletes the identity with the given id. ErrNotFound leaves the store unchanged.
func (u *EnrollmentUseCase) Remove(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	idx := u.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	next := make([]domain.Identity, 0, len(u.faces)-1)
	next = append(next, u.faces[:idx]...)
	next = append(next, u.faces[idx+1:]...)

	if err := u.persist(next); err != nil {
		return err
	}
	u.faces = next

	u.logger.Info("face removed", "id", id)
	return nil
}

// Clear removes every identity. Clearing an empty store succeeds.
func (u *EnrollmentUseCase) Clear() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.storage.RemoveAll(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	removed := len(u.faces)
	u.faces = nil

	u.logger.Info("faces cleared", "count", removed)
	return nil
}

// Rename changes an identity's name under the same rules as Enroll,
// checked against all other identities.
func (u *EnrollmentUseCase) Rename(id, newName string) (domain.Identity, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	idx := u.indexOf(id)
	if idx < 0 {
		return domain.Identity{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	newName = strings.TrimSpace(newName)
	if err := u.validateName(newName, id); err != nil {
		return domain.Identity{}, err
	}

	next := make([]domain.Identity, len(u.faces))
	copy(next, u.faces)
	next[idx].Name = newName

	if err := u.persist(next); err != nil {
		return domain.Identity{}, err
	}
	u.faces = next

	u.logger.Info("face renamed", "id", id, "name", newName)
	return next[idx].Clone(), nil
}

// List returns a deep copy of all identities in insertion order.
func (u *EnrollmentUseCase) List() []domain.Identity {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]domain.Identity, len(u.faces))
	for i, f := range u.faces {
		out[i] = f.Clone()
	}
	return out
}

// Exists reports whether name is enrolled, ignoring case and surrounding space.
func (u *EnrollmentUseCase) Exists(name string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.findByName(foldName(name), "") >= 0
}

func (u *EnrollmentUseCase) Count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.faces)
}

func (u *EnrollmentUseCase) Dimension() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.dimension
}

// StorageSizeKB returns the size of the serialized listing in kilobytes.
func (u *EnrollmentUseCase) StorageSizeKB() (float64, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if len(u.faces) == 0 {
		return 0, nil
	}

	data, err := json.Marshal(toRecords(u.faces))
	if err != nil {
		return 0, err
	}
	return math.Round(float64(len(data))/1024*100) / 100, nil
}

func (u *EnrollmentUseCase) Stats() (domain.Stats, error) {
	size, err := u.StorageSizeKB()
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{
		Count:     u.Count(),
		StorageKB: size,
		Dimension: u.Dimension(),
	}, nil
}

func (u *EnrollmentUseCase) validateName(name, selfID string) error {
	if name == "" {
		return &domain.ValidationError{Err: domain.ErrEmptyName, Reason: "Please enter a name"}
	}
	if u.findByName(foldName(name), selfID) >= 0 {
		return &domain.ValidationError{
			Err:    domain.ErrDuplicateName,
			Reason: fmt.Sprintf("A face named %q is already saved. Please use a different name.", name),
		}
	}
	return nil
}

func (u *EnrollmentUseCase) validateEmbedding(embedding []float32) error {
	if len(embedding) == 0 {
		return &domain.ValidationError{Err: domain.ErrDimensionMismatch, Reason: "Face descriptor is empty"}
	}
	if u.dimension != 0 && len(embedding) != u.dimension {
		return &domain.ValidationError{
			Err:    domain.ErrDimensionMismatch,
			Reason: fmt.Sprintf("Face descriptor has %d values, expected %d", len(embedding), u.dimension),
		}
	}
	return nil
}

// findByName returns the index of the identity whose folded name equals
// folded, ignoring the identity with id skipID.
func (u *EnrollmentUseCase) findByName(folded, skipID string) int {
	for i, f := range u.faces {
		if f.ID != skipID && foldName(f.Name) == folded {
			return i
		}
	}
	return -1
}

func (u *EnrollmentUseCase) indexOf(id string) int {
	for i, f := range u.faces {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (u *EnrollmentUseCase) persist(faces []domain.Identity) error {
	if err := u.storage.Save(toRecords(faces)); err != nil {
		u.logger.Error("failed to persist enrolled faces", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func toRecords(faces []domain.Identity) []domain.Record {
	records := make([]domain.Record, len(faces))
	for i, f := range faces {
		records[i] = f.Record()
	}
	return records
}
