package scan

import (
	"time"

	"github.com/RimaChaieb/tuniguard-api/internal/classifier"
)

// Action is the user's disposition of a scanned message, recorded after
// the fact.
type Action string

const (
	ActionDeleted  Action = "deleted"
	ActionReported Action = "reported"
	ActionIgnored  Action = "ignored"
)

// Valid reports whether a is a known disposition.
func (a Action) Valid() bool {
	switch a {
	case ActionDeleted, ActionReported, ActionIgnored:
		return true
	}
	return false
}

// Scan is one persisted classification of submitted content. The only
// field changed after insert is UserAction.
type Scan struct {
	ID                 int64                  `json:"scan_id"`
	UserID             int64                  `json:"user_id"`
	ThreatID           *int64                 `json:"threat_id"`
	InputText          string                 `json:"input_text"`
	ContentType        classifier.ContentType `json:"content_type"`
	DetectionScore     float64                `json:"detection_score"`
	ClassifierResponse string                 `json:"-"`
	Timestamp          time.Time              `json:"timestamp"`
	InterceptTime      float64                `json:"intercept_time"`
	UserAction         *Action                `json:"user_action"`
	LocationHint       string                 `json:"location_hint"`
}

// Request is a single scan submission.
type Request struct {
	UserID       int64  `json:"user_id"`
	Content      string `json:"content"`
	ContentType  string `json:"content_type"`
	LocationHint string `json:"location_hint,omitempty"`
}

// Response is returned for a successfully persisted scan.
type Response struct {
	ScanID          int64     `json:"scan_id"`
	ThreatDetected  bool      `json:"threat_detected"`
	DetectionScore  float64   `json:"detection_score"`
	ThreatType      *string   `json:"threat_type"`
	Severity        *string   `json:"severity"`
	Advice          string    `json:"advice"`
	Explanation     string    `json:"explanation"`
	RedFlags        []string  `json:"red_flags"`
	SafeActions     []string  `json:"safe_actions"`
	SignalBars      string    `json:"signal_bars"`
	InterceptTime   float64   `json:"intercept_time"`
	Timestamp       time.Time `json:"timestamp"`
	CulturalContext string    `json:"cultural_context"`
	UserRiskScore   float64   `json:"user_risk_score"`
}

// BatchItem is one message in a batch submission.
type BatchItem struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// BatchRequest classifies up to MaxBatch messages without persisting them.
type BatchRequest struct {
	UserID int64       `json:"user_id"`
	Scans  []BatchItem `json:"scans"`
}

// BatchResult is the verdict for one batch message.
type BatchResult struct {
	ContentPreview string  `json:"content_preview"`
	ThreatDetected bool    `json:"threat_detected"`
	Score          float64 `json:"score"`
	ThreatType     string  `json:"threat_type"`
}

// BatchResponse summarises a batch run.
type BatchResponse struct {
	TotalScanned int           `json:"total_scanned"`
	ThreatsFound int           `json:"threats_found"`
	SafeMessages int           `json:"safe_messages"`
	Results      []BatchResult `json:"results"`
}

// Detail is the read view of a stored scan.
type Detail struct {
	ScanID         int64     `json:"scan_id"`
	UserID         int64     `json:"user_id"`
	InputText      string    `json:"input_text"`
	ContentType    string    `json:"content_type"`
	DetectionScore float64   `json:"detection_score"`
	ThreatType     string    `json:"threat_type"`
	Timestamp      time.Time `json:"timestamp"`
	InterceptTime  float64   `json:"intercept_time"`
	UserAction     *Action   `json:"user_action"`
	LocationHint   string    `json:"location_hint"`
}
