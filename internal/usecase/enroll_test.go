package usecase

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceid/internal/adapter/memstore"
	"faceid/internal/domain"
	"faceid/internal/logging"
)

func newTestEnrollment(t *testing.T, st *memstore.MemoryStore, dimension int) *EnrollmentUseCase {
	t.Helper()
	u := NewEnrollmentUseCase(st, dimension, logging.Discard())
	seq := 0
	u.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	u.newID = func(time.Time) string {
		seq++
		return fmt.Sprintf("face_%d", seq)
	}
	return u
}

func TestEnroll_TrimsAndPersists(t *testing.T) {
	st := memstore.NewMemoryStore()
	u := newTestEnrollment(t, st, 2)

	identity, err := u.Enroll("  Alice  ", []float32{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, "face_1", identity.ID)
	assert.Equal(t, "Alice", identity.Name)

	records, err := st.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Name)
	assert.Equal(t, []float32{0.1, 0.2}, records[0].Descriptor)
	assert.Equal(t, 2026, records[0].Timestamp.Year())
}

func TestEnroll_RejectsEmptyName(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 2)

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := u.Enroll(name, []float32{1, 2})
		assert.ErrorIs(t, err, domain.ErrEmptyName)
		assert.True(t, domain.IsValidation(err))
	}
	assert.Zero(t, u.Count())
}

func TestEnroll_RejectsCaseInsensitiveDuplicate(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 2)

	_, err := u.Enroll("Ann", []float32{1, 0})
	require.NoError(t, err)

	_, err = u.Enroll("ann", []float32{0, 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.Contains(t, err.Error(), "already saved")

	_, err = u.Enroll(" ANN ", []float32{0, 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	assert.Equal(t, 1, u.Count())
}

func TestEnroll_UnicodeCaseFolding(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 1)

	_, err := u.Enroll("Jürgen", []float32{1})
	require.NoError(t, err)

	assert.True(t, u.Exists("JÜRGEN"))
	_, err = u.Enroll("jürgen", []float32{2})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestEnroll_RejectsDimensionMismatch(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 3)

	_, err := u.Enroll("Alice", []float32{1, 2})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = u.Enroll("Alice", nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Zero(t, u.Count())
}

func TestEnroll_FirstEmbeddingFixesDimension(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 0)

	_, err := u.Enroll("Alice", []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, u.Dimension())

	_, err = u.Enroll("Bob", []float32{1, 2})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEnroll_PersistenceFailureLeavesStoreUnchanged(t *testing.T) {
	st := memstore.NewMemoryStore()
	u := newTestEnrollment(t, st, 1)

	_, err := u.Enroll("Alice", []float32{1})
	require.NoError(t, err)

	st.SaveErr = memstore.ErrInjected
	_, err = u.Enroll("Bob", []float32{2})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, memstore.ErrInjected)
	assert.Equal(t, 1, u.Count())
	assert.False(t, u.Exists("Bob"))
}

func TestEnroll_CopiesCallerEmbedding(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 2)

	emb := []float32{1, 2}
	_, err := u.Enroll("Alice", emb)
	require.NoError(t, err)

	emb[0] = 42
	assert.Equal(t, float32(1), u.List()[0].Embedding[0])
}

func TestRemove(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 1)
	a, _ := u.Enroll("Alice", []float32{1})
	b, _ := u.Enroll("Bob", []float32{2})

	require.NoError(t, u.Remove(a.ID))

	list := u.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestRemove_UnknownIDLeavesCount(t *testing.T) {
	st := memstore.NewMemoryStore()
	u := newTestEnrollment(t, st, 1)
	_, _ = u.Enroll("Alice", []float32{1})
	saves := st.Saves()

	err := u.Remove("face_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, u.Count())
	assert.Equal(t, saves, st.Saves())
}

func TestRemove_PersistenceFailure(t *testing.T) {
	st := memstore.NewMemoryStore()
	u := newTestEnrollment(t, st, 1)
	a, _ := u.Enroll("Alice", []float32{1})

	st.SaveErr = memstore.ErrInjected
	assert.ErrorIs(t, u.Remove(a.ID), domain.ErrPersistence)
	assert.Equal(t, 1, u.Count())
}

func TestClear(t *testing.T) {
	st := memstore.NewMemoryStore()
	u := newTestEnrollment(t, st, 1)
	_, _ = u.Enroll("Alice", []float32{1})
	_, _ = u.Enroll("Bob", []float32{2})

	require.NoError(t, u.Clear())
	assert.Zero(t, u.Count())

	records, err := st.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClear_EmptyIsIdempotent(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 1)

	require.NoError(t, u.Clear())
	require.NoError(t, u.Clear())
	assert.Empty(t, u.List())
}

func TestClear_PersistenceFailure(t *testing.T) {
	st := memstore.NewMemoryStore()
	u := newTestEnrollment(t, st, 1)
	_, _ = u.Enroll("Alice", []float32{1})

	st.RemoveAllErr = memstore.ErrInjected
	assert.ErrorIs(t, u.Clear(), domain.ErrPersistence)
	assert.Equal(t, 1, u.Count())
}

func TestRename(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 1)
	a, _ := u.Enroll("Alice", []float32{1})
	_, _ = u.Enroll("Bob", []float32{2})

	renamed, err := u.Rename(a.ID, "  Alicia ")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", renamed.Name)
	assert.True(t, u.Exists("alicia"))
	assert.False(t, u.Exists("Alice"))

	_, err = u.Rename(a.ID, "BOB")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	_, err = u.Rename(a.ID, " ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	_, err = u.Rename("face_missing", "Carol")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// changing only the case of one's own name is allowed
	renamed, err = u.Rename(a.ID, "ALICIA")
	require.NoError(t, err)
	assert.Equal(t, "ALICIA", renamed.Name)
}

func TestList_ReturnsSnapshot(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 2)
	_, _ = u.Enroll("Alice", []float32{1, 2})
	_, _ = u.Enroll("Bob", []float32{3, 4})

	list := u.List()
	list[0].Name = "Mallory"
	list[0].Embedding[0] = 99

	fresh := u.List()
	require.Len(t, fresh, 2)
	assert.Equal(t, "Alice", fresh[0].Name)
	assert.Equal(t, float32(1), fresh[0].Embedding[0])
	assert.Equal(t, "Bob", fresh[1].Name)
}

func TestNewEnrollment_LoadsPersistedInOrder(t *testing.T) {
	st := memstore.NewMemoryStore(
		domain.Record{ID: "face_b", Name: "Bob", Descriptor: []float32{1, 1}},
		domain.Record{ID: "face_a", Name: "Alice", Descriptor: []float32{2, 2}},
	)

	u := NewEnrollmentUseCase(st, 0, logging.Discard())
	list := u.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Name)
	assert.Equal(t, "Alice", list[1].Name)
	assert.Equal(t, 2, u.Dimension())
}

func TestNewEnrollment_LoadFailureStartsEmpty(t *testing.T) {
	st := memstore.NewMemoryStore(domain.Record{ID: "face_a", Name: "Alice", Descriptor: []float32{1}})
	st.LoadErr = errors.New("corrupt")

	u := NewEnrollmentUseCase(st, 1, logging.Discard())
	assert.Zero(t, u.Count())
}

func TestStorageSizeKB(t *testing.T) {
	u := newTestEnrollment(t, memstore.NewMemoryStore(), 128)

	size, err := u.StorageSizeKB()
	require.NoError(t, err)
	assert.Zero(t, size)

	_, err = u.Enroll("Alice", make([]float32, 128))
	require.NoError(t, err)

	size, err = u.StorageSizeKB()
	require.NoError(t, err)
	assert.Greater(t, size, 0.0)

	stats, err := u.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, size, stats.StorageKB)
	assert.Equal(t, 128, stats.Dimension)
}

func TestNewFaceID(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	a := newFaceID(ts)
	b := newFaceID(ts)

	assert.Regexp(t, `^face_1700000000123_[0-9a-z]{9}$`, a)
	assert.NotEqual(t, a, b)
}
