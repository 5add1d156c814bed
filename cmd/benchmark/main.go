package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"faceid/config"
	"faceid/internal/adapter/matcher"
	"faceid/internal/adapter/store"
	"faceid/internal/domain"
	"faceid/internal/logging"
	"faceid/internal/usecase"
)

// outcome tallies how probes fared at one threshold.
type outcome struct {
	threshold     float64
	trueAccept    int
	wrongIdentity int
	falseReject   int
	trueReject    int
	falseAccept   int
}

func main() {
	dir := flag.String("dir", ".", "Directory holding the enrollment store")
	probesPath := flag.String("probes", "", "JSON records with the expected name of each probe")
	step := flag.Float64("step", 0.05, "Threshold sweep step across the slider band")
	flag.Parse()

	if *probesPath == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -probes probes.json")
		fmt.Println("\nProbes are records as written by 'faceid list --json'. A probe whose name")
		fmt.Println("is not enrolled is expected to come back Unknown.")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.NewBoltStore(cfg.DBPath(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening face store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	enrollment := usecase.NewEnrollmentUseCase(st, cfg.Matching.Dimension, logging.Discard())
	if enrollment.Count() == 0 {
		fmt.Fprintln(os.Stderr, "No faces enrolled")
		os.Exit(1)
	}

	probes, err := loadProbes(*probesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading probes: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("THRESHOLD SWEEP")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Enrolled faces: %d\n", enrollment.Count())
	fmt.Printf("Probes:         %d\n", len(probes))
	fmt.Println()

	m := usecase.NewMatchUseCase(enrollment)
	queries := make([][]float32, len(probes))
	for i, p := range probes {
		queries[i] = p.Descriptor
	}

	fmt.Printf("%-9s %6s %6s %6s %6s %6s %9s\n", "THRESHOLD", "TA", "WRONG", "FR", "TR", "FA", "ACCURACY")
	fmt.Println(strings.Repeat("-", 70))

	best := outcome{}
	bestAccuracy := -1.0
	for t := matcher.MinSliderThreshold; t <= matcher.MaxSliderThreshold+1e-9; t += *step {
		results, err := m.Match(queries, t)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Match error: %v\n", err)
			os.Exit(1)
		}

		o := score(t, probes, results, enrollment)
		acc := o.accuracy()
		fmt.Printf("%-9.2f %6d %6d %6d %6d %6d %8.1f%%%s\n",
			t, o.trueAccept, o.wrongIdentity, o.falseReject, o.trueReject, o.falseAccept, acc*100, presetLabel(t))

		if acc > bestAccuracy {
			best, bestAccuracy = o, acc
		}
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Best threshold: %.2f (accuracy %.1f%%)\n", best.threshold, bestAccuracy*100)
}

func loadProbes(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probes []domain.Record
	if err := json.Unmarshal(data, &probes); err != nil {
		return nil, err
	}
	return probes, nil
}

func score(t float64, probes []domain.Record, results []*domain.MatchResult, enrollment *usecase.EnrollmentUseCase) outcome {
	o := outcome{threshold: t}
	for i, r := range results {
		expectKnown := enrollment.Exists(probes[i].Name)
		switch {
		case r == nil || !r.Matched:
			if expectKnown {
				o.falseReject++
			} else {
				o.trueReject++
			}
		case !expectKnown:
			o.falseAccept++
		case strings.EqualFold(strings.TrimSpace(r.Name), strings.TrimSpace(probes[i].Name)):
			o.trueAccept++
		default:
			o.wrongIdentity++
		}
	}
	return o
}

func (o outcome) accuracy() float64 {
	total := o.trueAccept + o.wrongIdentity + o.falseReject + o.trueReject + o.falseAccept
	if total == 0 {
		return 0
	}
	return float64(o.trueAccept+o.trueReject) / float64(total)
}

func presetLabel(t float64) string {
	for _, p := range matcher.Presets {
		if p.Threshold > t-1e-9 && p.Threshold < t+1e-9 {
			return "  (" + string(p.Level) + ")"
		}
	}
	return ""
}
