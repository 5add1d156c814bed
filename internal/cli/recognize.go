package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"faceid/internal/adapter/fs"
	"faceid/internal/adapter/matcher"
	"faceid/internal/domain"
	"faceid/internal/usecase"
)

var (
	recognizeFrames   string
	recognizeInterval time.Duration
	recognizeDuration time.Duration
	recognizeJSON     bool
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run continuous recognition over a frame source",
	Long: `Run the recognition loop: every interval grab the next frame, detect faces,
and match them against the enrolled set. Frames are image files under the
--frames directory, replayed in order. Ticks that arrive while a frame is
still being processed are dropped.

Examples:
  faceid recognize --frames ./camera
  faceid recognize --frames ./camera --interval 250ms --duration 1m --json`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	recognizeCmd.Flags().StringVar(&recognizeFrames, "frames", "", "directory of frame images (default is the root directory)")
	recognizeCmd.Flags().DurationVar(&recognizeInterval, "interval", 0, "time between frames (default from config)")
	recognizeCmd.Flags().DurationVar(&recognizeDuration, "duration", 0, "stop after this long (default: until interrupted)")
	recognizeCmd.Flags().BoolVar(&recognizeJSON, "json", false, "print one JSON object per frame")
	addThresholdFlags(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	threshold, err := resolveThreshold(cmd)
	if err != nil {
		return err
	}

	interval := cfg.Recognition.Interval
	if recognizeInterval > 0 {
		interval = recognizeInterval
	}

	framesDir := recognizeFrames
	if framesDir == "" {
		framesDir = GetRootDir()
	}
	frames, err := fs.NewDirFrameSource(framesDir, fs.NewWalker(cfg.Recognition.Includes, cfg.Recognition.Excludes))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if recognizeDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recognizeDuration)
		defer cancel()
	}

	ext, err := newExtractor(ctx)
	if err != nil {
		return err
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	enrollment := newEnrollment(st)
	if enrollment.Count() == 0 {
		logger.Warn("no faces enrolled; every face will be reported without a match")
	}

	sink := newFramePrinter(cmd.OutOrStdout(), recognizeJSON)
	loop := usecase.NewRecognitionLoop(frames, ext, usecase.NewMatchUseCase(enrollment),
		interval, threshold, sink.print, logger)

	if err := loop.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recognizing %d frame(s) from %s every %s. Press Ctrl+C to stop.\n",
		frames.Len(), framesDir, interval)

	started := time.Now()
	<-ctx.Done()
	loop.Stop()

	stats := loop.Stats()
	fmt.Fprintf(cmd.ErrOrStderr(), "\nStopped after %s: %d cycles, %d published, %d ticks dropped\n",
		formatDuration(time.Since(started)), stats.Cycles, stats.Published, stats.Dropped)
	return nil
}

// framePrinter renders recognition results as text lines or JSON objects.
type framePrinter struct {
	mu      sync.Mutex
	w       io.Writer
	asJSON  bool
	encoder *json.Encoder
}

func newFramePrinter(w io.Writer, asJSON bool) *framePrinter {
	return &framePrinter{w: w, asJSON: asJSON, encoder: json.NewEncoder(w)}
}

type frameOutput struct {
	Frame      string             `json:"frame"`
	CapturedAt time.Time          `json:"captured_at"`
	Faces      []domain.FaceMatch `json:"faces"`
}

func (p *framePrinter) print(frame domain.Frame, matches []domain.FaceMatch) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.asJSON {
		if matches == nil {
			matches = []domain.FaceMatch{}
		}
		p.encoder.Encode(frameOutput{Frame: frame.Source, CapturedAt: frame.CapturedAt, Faces: matches})
		return
	}

	if len(matches) == 0 {
		fmt.Fprintf(p.w, "%s  %s: no faces\n", frame.CapturedAt.Format("15:04:05.000"), frame.Source)
		return
	}

	labels := make([]string, len(matches))
	for i, m := range matches {
		labels[i] = describeMatch(m.Match)
	}
	fmt.Fprintf(p.w, "%s  %s: %s\n", frame.CapturedAt.Format("15:04:05.000"), frame.Source, strings.Join(labels, ", "))
}

func describeMatch(r *domain.MatchResult) string {
	switch {
	case r == nil:
		return "face (nothing enrolled)"
	case !r.Matched:
		return fmt.Sprintf("%s (distance %s)", domain.UnknownName, formatDistance(r.Distance))
	default:
		return fmt.Sprintf("%s (%s, %s)", r.Name, matcher.FormatConfidence(r.Confidence), matcher.ConfidenceLevel(r.Confidence))
	}
}
