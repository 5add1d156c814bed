package matcher

import (
	"fmt"
	"math"
	"strings"

	"faceid/internal/domain"
)

const (
	DefaultThreshold = 0.6

	// MinSliderThreshold and MaxSliderThreshold bound the band offered to users.
	MinSliderThreshold = 0.4
	MaxSliderThreshold = 0.8
)

// SecurityLevel is a named threshold preset.
type SecurityLevel string

const (
	SecurityLow    SecurityLevel = "low"
	SecurityMedium SecurityLevel = "medium"
	SecurityHigh   SecurityLevel = "high"
)

// Presets lists the security levels with their thresholds, most permissive first.
var Presets = []struct {
	Level     SecurityLevel `json:"level"`
	Threshold float64       `json:"threshold"`
}{
	{SecurityLow, 0.7},
	{SecurityMedium, 0.6},
	{SecurityHigh, 0.5},
}

// ThresholdForSecurityLevel returns the preset threshold, falling back to medium.
func ThresholdForSecurityLevel(level string) float64 {
	l := SecurityLevel(strings.ToLower(strings.TrimSpace(level)))
	for _, p := range Presets {
		if p.Level == l {
			return p.Threshold
		}
	}
	return DefaultThreshold
}

// ValidateThreshold rejects thresholds the matcher cannot use.
func ValidateThreshold(threshold float64) error {
	if !validThreshold(threshold) {
		return fmt.Errorf("%w: got %v", domain.ErrInvalidThreshold, threshold)
	}
	return nil
}

func validThreshold(t float64) bool {
	return t > 0 && !math.IsNaN(t) && !math.IsInf(t, 0)
}

// ConfidenceLevel labels a confidence percentage for display.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 80:
		return "Very High"
	case confidence >= 60:
		return "High"
	case confidence >= 40:
		return "Medium"
	case confidence >= 20:
		return "Low"
	default:
		return "Very Low"
	}
}

// FormatConfidence renders a confidence percentage, e.g. "87.5%".
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence)
}
