// Package analytics computes per-user, national and trending statistics over
// stored scans.
package analytics

import (
	"github.com/RimaChaieb/tuniguard-api/internal/risk"
)

// ThreatScore is the detection score above which a scan counts as a threat
// in statistics.
const ThreatScore = 50

// Alert levels attached to trending threats.
const (
	AlertHigh   = "High"
	AlertMedium = "Medium"
	AlertLow    = "Low"
)

// Summarize folds per content type aggregates into a Summary.
func Summarize(rows []ContentTypeAgg) Summary {
	s := Summary{ByContentType: make(map[string]ContentTypeStats, len(rows))}
	var sum float64
	for _, r := range rows {
		ct := r.ContentType
		if ct == "" {
			ct = "unknown"
		}
		prev := s.ByContentType[ct]
		s.ByContentType[ct] = ContentTypeStats{Total: prev.Total + r.Total, Threats: prev.Threats + r.Threats}
		s.TotalScans += r.Total
		s.ThreatsDetected += r.Threats
		sum += r.ScoreSum
	}
	if s.TotalScans > 0 {
		s.AverageThreatScore = risk.Round2(sum / float64(s.TotalScans))
		s.ThreatPercentage = risk.Round2(float64(s.ThreatsDetected) / float64(s.TotalScans) * 100)
	}
	return s
}

// AlertLevel grades a trending frequency.
func AlertLevel(frequency int) string {
	switch {
	case frequency > 20:
		return AlertHigh
	case frequency > 10:
		return AlertMedium
	default:
		return AlertLow
	}
}

// PerHour is total spread over hours, rounded to two decimals.
func PerHour(total, hours int) float64 {
	if hours <= 0 {
		return 0
	}
	return risk.Round2(float64(total) / float64(hours))
}
