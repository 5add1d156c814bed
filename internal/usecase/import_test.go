package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceid/internal/adapter/fs"
	"faceid/internal/adapter/memstore"
	"faceid/internal/domain"
	"faceid/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_team.json", `[
		{"id": "x1", "name": "Alice", "descriptor": [0, 0]},
		{"id": "x2", "name": "Bob", "descriptor": [1, 0]}
	]`)
	writeFile(t, dir, "b_single.json", `{"name": "Carol", "descriptor": [2, 2]}`)
	writeFile(t, dir, "c_dupe.json", `{"name": "alice", "descriptor": [3, 3]}`)
	writeFile(t, dir, "d_broken.json", `{"name": `)
	writeFile(t, dir, "notes.txt", "ignored")

	st := memstore.NewMemoryStore()
	enroll := newTestEnrollment(t, st, 2)
	imp := NewImportUseCase(enroll, fs.NewWalker([]string{"**/*.json"}, nil), logging.Discard())

	var calls []int
	result, err := imp.Import(context.Background(), dir, func(done, total int) {
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.FilesRead)
	assert.Equal(t, 3, result.Enrolled)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)

	names := []string{}
	for _, f := range enroll.List() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)

	// ids are reassigned on import
	assert.NotEqual(t, "x1", enroll.List()[0].ID)
}

func TestImport_PersistenceFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", `{"name": "Alice", "descriptor": [0, 0]}`)

	st := memstore.NewMemoryStore()
	st.SaveErr = memstore.ErrInjected
	imp := NewImportUseCase(newTestEnrollment(t, st, 2), fs.NewWalker([]string{"**/*.json"}, nil), logging.Discard())

	_, err := imp.Import(context.Background(), dir, nil)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestImport_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", `{"name": "Alice", "descriptor": [0, 0]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := NewImportUseCase(newTestEnrollment(t, memstore.NewMemoryStore(), 2), fs.NewWalker(nil, nil), logging.Discard())
	_, err := imp.Import(ctx, dir, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadRecordFile_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.json", "  \n")

	_, err := readRecordFile(filepath.Join(dir, "empty.json"))
	assert.Error(t, err)
}
