package intel

import "time"

// EscalationLevel is the per-day escalation label of an intel record.
type EscalationLevel string

const (
	EscalationStable     EscalationLevel = "stable"
	EscalationMonitoring EscalationLevel = "monitoring"
	EscalationEscalating EscalationLevel = "escalating"
)

// MitigationStatus tracks analyst follow-up. The scan pipeline only ever
// writes MitigationOpen.
type MitigationStatus string

const (
	MitigationOpen      MitigationStatus = "open"
	MitigationMitigated MitigationStatus = "mitigated"
	MitigationClosed    MitigationStatus = "closed"
)

// Record aggregates qualifying detections of one threat in one region on
// one calendar day.
type Record struct {
	ID                int64            `json:"intel_id"`
	ThreatID          int64            `json:"threat_id"`
	ReportedDate      time.Time        `json:"reported_date"`
	ReportedDay       time.Time        `json:"reported_day"`
	SourceRegion      string           `json:"source_region"`
	SourceCountry     string           `json:"source_country"`
	AffectedCarriers  Carriers         `json:"affected_carriers"`
	Frequency         int              `json:"frequency"`
	AffectedUserCount int              `json:"affected_user_count"`
	TrendScore        float64          `json:"trend_score"`
	EscalationLevel   EscalationLevel  `json:"escalation_level"`
	MitigationStatus  MitigationStatus `json:"mitigation_status"`
	IOCList           string           `json:"ioc_list"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Key returns the aggregation key of r.
func (r *Record) Key() Key {
	return Key{ThreatID: r.ThreatID, Region: r.SourceRegion, Day: Day(r.ReportedDay)}
}

// Key identifies the single record allowed per threat, region and day.
type Key struct {
	ThreatID int64
	Region   string
	Day      time.Time
}

// Filter narrows an intel listing. Zero values match everything.
type Filter struct {
	Region     string
	Day        *time.Time
	Escalation EscalationLevel
	Limit      int
}
