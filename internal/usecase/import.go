package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"faceid/internal/adapter/fs"
	"faceid/internal/domain"
)

// ImportUseCase bulk-enrolls faces from JSON record files.
type ImportUseCase struct {
	enroll  *EnrollmentUseCase
	walker  *fs.Walker
	logger  *slog.Logger
	workers int
}

// NewImportUseCase creates a new import use case.
func NewImportUseCase(enroll *EnrollmentUseCase, walker *fs.Walker, logger *slog.Logger) *ImportUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportUseCase{
		enroll:  enroll,
		walker:  walker,
		logger:  logger,
		workers: runtime.NumCPU(),
	}
}

// ImportResult contains the results of an import.
type ImportResult struct {
	FilesRead int
	Enrolled  int
	Skipped   int
	Errors    []string
}

// ImportProgress is called once per file after its records are enrolled.
type ImportProgress func(done, total int)

type parsedFile struct {
	path    string
	records []domain.Record
	err     error
}

// Import reads every matching file under root and enrolls its records in
// path order. Invalid or duplicate records are skipped and reported; a
// persistence failure aborts the import.
func (u *ImportUseCase) Import(ctx context.Context, root string, progress ImportProgress) (*ImportResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	parsed := make([]parsedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := readRecordFile(file.Path)
			parsed[i] = parsedFile{path: file.RelPath, records: records, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i, pf := range parsed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if pf.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pf.path, pf.err))
		} else {
			result.FilesRead++
			for _, rec := range pf.records {
				if _, err := u.enroll.Enroll(rec.Name, rec.Descriptor); err != nil {
					if errors.Is(err, domain.ErrPersistence) {
						return result, err
					}
					result.Skipped++
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %q: %v", pf.path, rec.Name, err))
					continue
				}
				result.Enrolled++
			}
		}
		if progress != nil {
			progress(i+1, len(parsed))
		}
	}

	u.logger.Info("import finished",
		"files", result.FilesRead, "enrolled", result.Enrolled, "skipped", result.Skipped)
	return result, nil
}

// readRecordFile accepts either a single record object or an array of them,
// the latter being the shape written by `list --json`.
func readRecordFile(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}

	if data[0] == '[' {
		var records []domain.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("invalid record list: %w", err)
		}
		return records, nil
	}

	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return []domain.Record{rec}, nil
}
