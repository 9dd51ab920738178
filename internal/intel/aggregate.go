// Package intel consolidates qualifying detections into per-day threat
// intelligence records and tracks their escalation.
package intel

import (
	"sort"
	"strings"
	"time"
)

const (
	// QualifyingScore is the detection score a scan must exceed to count.
	QualifyingScore = 50.0

	// DefaultCountry is stamped on every record.
	DefaultCountry = "Tunisia"

	initialTrendScore = 50.0
	iocMaxChars       = 100

	monitoringFrequency = 5
	escalatingFrequency = 10
	monitoringTrendStep = 2.0
	escalatingTrendStep = 5.0
)

// Observation is one qualifying detection to fold into the aggregate.
type Observation struct {
	ThreatID int64
	Region   string
	Carrier  string
	Content  string
	At       time.Time
}

// Key returns the aggregation key the observation belongs to.
func (o Observation) Key() Key {
	return Key{ThreatID: o.ThreatID, Region: o.Region, Day: Day(o.At)}
}

// Qualifies reports whether a classified scan feeds the aggregate: a threat
// must be detected, scored above QualifyingScore and resolved to a catalog
// entry.
func Qualifies(threatDetected bool, score float64, resolved bool) bool {
	return threatDetected && score > QualifyingScore && resolved
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewRecord builds the first record for an observation's key.
func NewRecord(o Observation) *Record {
	now := o.At.UTC()
	return &Record{
		ThreatID:          o.ThreatID,
		ReportedDate:      now,
		ReportedDay:       Day(now),
		SourceRegion:      o.Region,
		SourceCountry:     DefaultCountry,
		AffectedCarriers:  NewCarriers(o.Carrier),
		Frequency:         1,
		AffectedUserCount: 1,
		TrendScore:        initialTrendScore,
		EscalationLevel:   EscalationStable,
		MitigationStatus:  MitigationOpen,
		IOCList:           truncateRunes(o.Content, iocMaxChars),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Observe folds another observation for the same key into r.
//
// AffectedUserCount counts qualifying events, not distinct users; a user
// reporting twice is counted twice.
func (r *Record) Observe(o Observation) {
	r.Frequency++
	r.AffectedUserCount++
	r.AffectedCarriers = r.AffectedCarriers.Add(o.Carrier)

	switch {
	case r.Frequency >= escalatingFrequency:
		r.EscalationLevel = EscalationEscalating
		r.TrendScore = minTrend(r.TrendScore + escalatingTrendStep)
	case r.Frequency >= monitoringFrequency:
		r.EscalationLevel = EscalationMonitoring
		r.TrendScore = minTrend(r.TrendScore + monitoringTrendStep)
	default:
		r.EscalationLevel = EscalationStable
	}
	r.UpdatedAt = o.At.UTC()
}

func minTrend(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Carriers is a set of carrier names, persisted comma-joined.
type Carriers []string

// NewCarriers returns a set holding c, or an empty set when c is blank.
func NewCarriers(c string) Carriers {
	return Carriers(nil).Add(c)
}

// ParseCarriers splits a comma-joined carrier list.
func ParseCarriers(s string) Carriers {
	var out Carriers
	for _, part := range strings.Split(s, ",") {
		out = out.Add(part)
	}
	return out
}

// Add returns the set with c included. Adding an existing carrier is a
// no-op. The result is kept sorted so the persisted form is stable.
func (cs Carriers) Add(c string) Carriers {
	c = strings.TrimSpace(c)
	if c == "" {
		return cs
	}
	for _, existing := range cs {
		if existing == c {
			return cs
		}
	}
	out := append(append(Carriers{}, cs...), c)
	sort.Strings(out)
	return out
}

// Contains reports whether c is in the set.
func (cs Carriers) Contains(c string) bool {
	for _, existing := range cs {
		if existing == c {
			return true
		}
	}
	return false
}

// String returns the comma-joined persisted form.
func (cs Carriers) String() string {
	return strings.Join(cs, ",")
}
