package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"faceid/config"
	"faceid/internal/adapter/extractor"
	"faceid/internal/adapter/matcher"
	"faceid/internal/adapter/store"
	"faceid/internal/domain"
	"faceid/internal/port"
	"faceid/internal/usecase"
)

// openStore opens the enrollment database and brings its schema up to date.
// An incompatible store is refused unless reset is set, in which case it is
// wiped.
func openStore(reset bool) (*store.BoltStore, error) {
	dbPath := cfg.DBPath(GetRootDir())
	if err := config.EnsureDataDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open face store: %w", err)
	}

	dimension := cfg.Matching.Dimension
	result, err := st.CheckMigration(dimension)
	if err != nil {
		st.Close()
		return nil, err
	}

	switch {
	case result.Incompatible && !reset:
		st.Close()
		return nil, fmt.Errorf("%s; run 'faceid clear --yes' to reset the store", result.Reason)
	case result.Incompatible:
		logger.Warn("resetting incompatible face store", "reason", result.Reason)
		err = st.Reset(dimension)
	case result.NeedsMigration:
		logger.Debug("migrating face store", "reason", result.Reason)
		err = st.Migrate(dimension)
	}
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate face store: %w", err)
	}
	return st, nil
}

func newEnrollment(st port.FaceStorage) *usecase.EnrollmentUseCase {
	return usecase.NewEnrollmentUseCase(st, cfg.Matching.Dimension, logger)
}

// addThresholdFlags registers --threshold and --security on cmd.
func addThresholdFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 0, "match threshold (default from config)")
	cmd.Flags().String("security", "", "security level preset: low, medium, high")
}

// resolveThreshold picks the threshold from flags, falling back to config.
// An explicit threshold wins over a security level.
func resolveThreshold(cmd *cobra.Command) (float64, error) {
	threshold := cfg.Matching.Threshold
	if cfg.Matching.SecurityLevel != "" {
		threshold = matcher.ThresholdForSecurityLevel(cfg.Matching.SecurityLevel)
	}

	if cmd.Flags().Changed("threshold") {
		threshold, _ = cmd.Flags().GetFloat64("threshold")
	} else if level, _ := cmd.Flags().GetString("security"); level != "" {
		threshold = matcher.ThresholdForSecurityLevel(level)
	}

	if err := matcher.ValidateThreshold(threshold); err != nil {
		return 0, err
	}
	return threshold, nil
}

// readDescriptors reads one or more descriptors from a JSON file. Accepted
// shapes are a bare array of numbers, an array of such arrays, a record
// object with a "descriptor" field, or an array of records.
func readDescriptors(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}

	var single []float32
	if err := json.Unmarshal(data, &single); err == nil {
		if len(single) == 0 {
			return nil, errors.New("descriptor file is empty")
		}
		return [][]float32{single}, nil
	}

	var many [][]float32
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err == nil && rec.Descriptor != nil {
		return [][]float32{rec.Descriptor}, nil
	}

	var recs []domain.Record
	if err := json.Unmarshal(data, &recs); err == nil {
		out := make([][]float32, len(recs))
		for i, r := range recs {
			out[i] = r.Descriptor
		}
		return out, nil
	}

	return nil, fmt.Errorf("unrecognized descriptor format in %s", path)
}

// newExtractor builds the configured extractor. The HTTP extractor is warmed
// up so that Ready reflects the service state.
func newExtractor(ctx context.Context) (port.Extractor, error) {
	switch cfg.Extractor.Provider {
	case "mock":
		return extractor.NewMockExtractor(cfg.Matching.Dimension), nil
	case "http", "":
		e := extractor.NewHTTPExtractor(cfg.Extractor.URL, cfg.Matching.Dimension, cfg.Extractor.Timeout, logger)
		e.SetMaxImageSide(cfg.Extractor.MaxImageSide)
		if err := e.Warmup(ctx); err != nil {
			return e, fmt.Errorf("extractor at %s: %w", cfg.Extractor.URL, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported extractor provider: %s", cfg.Extractor.Provider)
	}
}

// detectSingleFace runs the extractor on an image file and requires exactly one face.
func detectSingleFace(ctx context.Context, ext port.Extractor, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	detections, err := ext.Detect(ctx, domain.Frame{Source: path, Data: data, CapturedAt: time.Now()})
	if err != nil {
		return nil, err
	}
	switch len(detections) {
	case 0:
		return nil, errors.New("no face detected in image")
	case 1:
		return detections[0].Embedding, nil
	default:
		return nil, fmt.Errorf("%d faces detected; enrollment needs exactly one", len(detections))
	}
}

func formatDistance(d float64) string {
	if math.IsInf(d, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", d)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
