package catalog

import "time"

// Category is the channel a catalog threat is typically delivered over.
type Category string

const (
	CategorySMS        Category = "SMS"
	CategoryCall       Category = "Call"
	CategoryAppMessage Category = "App Message"
)

// Severity ranks the impact of a catalog threat.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ValidSeverity reports whether s is one of the four known severities.
func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	switch Category(c) {
	case CategorySMS, CategoryCall, CategoryAppMessage:
		return true
	}
	return false
}

// Entry is a named threat in the catalog. Entries are ordered by ID, which
// follows insertion order.
type Entry struct {
	ID             int64     `json:"threat_id"       db:"id"`
	Type           string    `json:"type"            db:"type"`
	Category       Category  `json:"category"        db:"category"`
	Severity       Severity  `json:"severity"        db:"severity"`
	Description    string    `json:"description"     db:"description"`
	Signature      string    `json:"signature"       db:"signature"`
	DetectionCount int64     `json:"detection_count" db:"detection_count"`
	CreatedAt      time.Time `json:"created_at"      db:"created_at"`
}

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	Category Category
	Severity Severity
}

// Detection is a recent scan attributed to a catalog entry.
type Detection struct {
	ScanID         int64     `json:"scan_id"`
	DetectionScore float64   `json:"detection_score"`
	Timestamp      time.Time `json:"timestamp"`
	ContentType    string    `json:"content_type"`
}

// Detail is an entry together with its recent detections.
type Detail struct {
	Entry
	RecentDetections []Detection `json:"recent_detections"`
	LastDetected     *time.Time  `json:"last_detected"`
}
