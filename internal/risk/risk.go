// Package risk computes the per-user risk score from recent scan history
// and the signal-strength band shown next to a single detection score.
package risk

import "math"

const (
	// Window is the number of most recent scans the score is computed over.
	Window = 20

	// Neutral is the score assigned to a user with no scan history.
	Neutral = 50.0

	// exposureThreshold marks a scan as high-exposure when its score is
	// strictly greater than this value.
	exposureThreshold = 70.0
)

// Score returns the risk score for a user given the detection scores of
// their most recent scans, newest first. Only the first Window entries
// are considered.
//
//	engagement = min(n/10, 1)
//	exposure   = count(score > 70) / n
//	raw        = 100 - 50*engagement + 30*exposure
//
// The result is clamped to [0, 100] and rounded to two decimals.
func Score(history []float64) float64 {
	if len(history) == 0 {
		return Neutral
	}
	if len(history) > Window {
		history = history[:Window]
	}

	n := float64(len(history))
	engagement := math.Min(n/10, 1)

	high := 0
	for _, s := range history {
		if s > exposureThreshold {
			high++
		}
	}
	exposure := float64(high) / n

	return Round2(Clamp(100 - 50*engagement + 30*exposure))
}

// Clamp bounds v to [0, 100].
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Signal bar labels, one per score band.
const (
	SignalWeak     = "░░░░░ (Weak Signal - Low Risk)"
	SignalModerate = "██░░░ (Moderate Signal - Medium Risk)"
	SignalStrong   = "████░ (Strong Signal - High Risk)"
	SignalCritical = "█████ (Critical Interference - Extreme Risk)"
)

// SignalBars maps a 0–100 detection score to its signal label:
//
//	< 25 → weak
//	< 50 → moderate
//	< 75 → strong
//	else → critical
func SignalBars(score float64) string {
	switch {
	case score < 25:
		return SignalWeak
	case score < 50:
		return SignalModerate
	case score < 75:
		return SignalStrong
	default:
		return SignalCritical
	}
}
