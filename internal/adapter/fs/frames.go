package fs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"faceid/internal/domain"
)

// DirFrameSource replays image files from a directory as a frame stream,
// cycling back to the first file after the last.
type DirFrameSource struct {
	mu    sync.Mutex
	files []FileInfo
	next  int
	now   func() time.Time
}

func NewDirFrameSource(root string, walker *Walker) (*DirFrameSource, error) {
	files, err := walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan frames: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames found under %s", root)
	}
	return &DirFrameSource{files: files, now: time.Now}, nil
}

func (s *DirFrameSource) Next(ctx context.Context) (domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}

	s.mu.Lock()
	file := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}
	return domain.Frame{
		Source:     file.RelPath,
		Data:       data,
		CapturedAt: s.now(),
	}, nil
}

// Len returns the number of frames in one cycle.
func (s *DirFrameSource) Len() int {
	return len(s.files)
}
