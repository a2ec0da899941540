package pixelart

import (
	"math"
	"unicode/utf8"
)

// TokenEstimator estimates how many quota tokens a prompt will cost.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// RuneTokenEstimator approximates tokens as runes/4, scaled by SafetyMargin,
// plus a fixed per-request Overhead.
type RuneTokenEstimator struct {
	SafetyMargin float64
	Overhead     int
}

// NewRuneTokenEstimator returns the estimator used by NewManager.
func NewRuneTokenEstimator() *RuneTokenEstimator {
	return &RuneTokenEstimator{
		SafetyMargin: 1.2,
		Overhead:     100,
	}
}

func (e *RuneTokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return e.Overhead
	}

	estimate := float64(utf8.RuneCountInString(text)) / 4.0 * e.SafetyMargin
	return int(math.Ceil(estimate)) + e.Overhead
}
