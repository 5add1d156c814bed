package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"faceid/internal/adapter/matcher"
	"faceid/internal/domain"
	"faceid/internal/port"
)

// ErrAlreadyRunning is returned by Start on a loop that has not been stopped.
var ErrAlreadyRunning = errors.New("recognition already running")

// ResultSink receives the matches of one recognition cycle.
// It must not call Start or Stop.
type ResultSink func(frame domain.Frame, matches []domain.FaceMatch)

// RecognitionLoop periodically grabs a frame, extracts faces and matches
// them against the enrollment snapshot. At most one cycle is in flight;
// ticks that arrive while a cycle is running are dropped, not queued.
type RecognitionLoop struct {
	frames    port.FrameSource
	extractor port.Extractor
	matcher   *MatchUseCase
	sink      ResultSink
	logger    *slog.Logger
	interval  time.Duration
	threshold float64

	mu       sync.Mutex
	current  *loopRun
	inFlight *semaphore.Weighted
	gen      atomic.Uint64

	cycles    atomic.Int64
	dropped   atomic.Int64
	published atomic.Int64
}

type loopRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	cycles sync.WaitGroup
}

// LoopStats counts what the loop has done since it was created.
type LoopStats struct {
	Cycles    int64 `json:"cycles"`
	Dropped   int64 `json:"dropped"`
	Published int64 `json:"published"`
}

// NewRecognitionLoop creates a stopped loop.
func NewRecognitionLoop(
	frames port.FrameSource,
	extractor port.Extractor,
	matcher *MatchUseCase,
	interval time.Duration,
	threshold float64,
	sink ResultSink,
	logger *slog.Logger,
) *RecognitionLoop {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecognitionLoop{
		frames:    frames,
		extractor: extractor,
		matcher:   matcher,
		sink:      sink,
		logger:    logger,
		interval:  interval,
		threshold: threshold,
		inFlight:  semaphore.NewWeighted(1),
	}
}

// Start begins ticking. It fails fast if the extractor is not ready or the
// threshold is unusable.
func (l *RecognitionLoop) Start(ctx context.Context) error {
	if !l.extractor.Ready() {
		return fmt.Errorf("cannot start recognition: %w", domain.ErrNotReady)
	}
	if err := matcher.ValidateThreshold(l.threshold); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &loopRun{cancel: cancel, done: make(chan struct{})}
	gen := l.gen.Add(1)
	l.current = run

	go l.tick(runCtx, run, gen)

	l.logger.Info("recognition started", "interval", l.interval, "threshold", l.threshold)
	return nil
}

// Stop cancels the loop and waits for any in-flight cycle. Once Stop
// returns the sink is not called again. Stopping a stopped loop is a no-op.
func (l *RecognitionLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	run := l.current
	if run == nil {
		return
	}
	l.current = nil
	l.gen.Add(1)
	run.cancel()

	<-run.done
	run.cycles.Wait()

	l.logger.Info("recognition stopped", "cycles", l.cycles.Load(), "dropped", l.dropped.Load())
}

// Running reports whether the loop has been started and not stopped.
func (l *RecognitionLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}

func (l *RecognitionLoop) Stats() LoopStats {
	return LoopStats{
		Cycles:    l.cycles.Load(),
		Dropped:   l.dropped.Load(),
		Published: l.published.Load(),
	}
}

func (l *RecognitionLoop) tick(ctx context.Context, run *loopRun, gen uint64) {
	defer close(run.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.inFlight.TryAcquire(1) {
				l.dropped.Add(1)
				l.logger.Debug("recognition tick dropped, previous cycle still running")
				continue
			}
			run.cycles.Add(1)
			go func() {
				defer run.cycles.Done()
				defer l.inFlight.Release(1)
				l.cycle(ctx, gen)
			}()
		}
	}
}

func (l *RecognitionLoop) cycle(ctx context.Context, gen uint64) {
	l.cycles.Add(1)

	frame, err := l.frames.Next(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("failed to acquire frame", "error", err)
		}
		return
	}

	detections, err := l.extractor.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("face extraction failed", "frame", frame.Source, "error", err)
		detections = nil
	}

	matches, err := l.matcher.MatchDetections(detections, l.threshold)
	if err != nil {
		l.logger.Error("matching failed", "error", err)
		return
	}

	if ctx.Err() != nil || l.gen.Load() != gen {
		return
	}
	l.published.Add(1)
	l.sink(frame, matches)
}
