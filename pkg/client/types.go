package client

import "time"

// RegisterRequest is the payload for Register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region,omitempty"`
	City     string `json:"city,omitempty"`
	Carrier  string `json:"carrier,omitempty"`
}

// Session is returned by Login and Register.
type Session struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	AnonymizedID string `json:"anonymized_id"`
	Region       string `json:"region"`
	Token        string `json:"token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// Profile is the anonymized view of a user.
type Profile struct {
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	AnonymizedID string     `json:"anonymized_id"`
	Region       string     `json:"region"`
	City         string     `json:"city"`
	Carrier      string     `json:"carrier"`
	RiskScore    float64    `json:"risk_score"`
	ScanCount    int        `json:"scan_count"`
	LastScan     *time.Time `json:"last_scan"`
	MemberSince  time.Time  `json:"member_since"`
}

// ScanRequest submits one message. ContentType is sms, call or app_message.
type ScanRequest struct {
	UserID       int64  `json:"user_id"`
	Content      string `json:"content"`
	ContentType  string `json:"content_type"`
	LocationHint string `json:"location_hint,omitempty"`
}

// ScanResult is the verdict for a stored scan.
type ScanResult struct {
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

// BatchItem is one message of a batch.
type BatchItem struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

// BatchRequest classifies up to 50 messages.
type BatchRequest struct {
	UserID int64       `json:"user_id"`
	Scans  []BatchItem `json:"scans"`
}

// BatchResult summarises a batch run.
type BatchResult struct {
	TotalScanned int `json:"total_scanned"`
	ThreatsFound int `json:"threats_found"`
	SafeMessages int `json:"safe_messages"`
	Results      []struct {
		ContentPreview string  `json:"content_preview"`
		ThreatDetected bool    `json:"threat_detected"`
		Score          float64 `json:"score"`
		ThreatType     string  `json:"threat_type"`
	} `json:"results"`
}

// ScanDetail is a stored scan.
type ScanDetail struct {
	ScanID         int64     `json:"scan_id"`
	UserID         int64     `json:"user_id"`
	InputText      string    `json:"input_text"`
	ContentType    string    `json:"content_type"`
	DetectionScore float64   `json:"detection_score"`
	ThreatType     string    `json:"threat_type"`
	Timestamp      time.Time `json:"timestamp"`
	InterceptTime  float64   `json:"intercept_time"`
	UserAction     *string   `json:"user_action"`
	LocationHint   string    `json:"location_hint"`
}

// Threat is a catalog entry.
type Threat struct {
	ThreatID       int64  `json:"threat_id"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Signature      string `json:"signature"`
	DetectionCount int64  `json:"detection_count"`
}

// ThreatDetail is a catalog entry with recent detections.
type ThreatDetail struct {
	Threat
	RecentDetections []struct {
		ScanID         int64     `json:"scan_id"`
		DetectionScore float64   `json:"detection_score"`
		Timestamp      time.Time `json:"timestamp"`
		ContentType    string    `json:"content_type"`
	} `json:"recent_detections"`
	LastDetected *time.Time `json:"last_detected"`
}

// Trending lists the most scanned threat types.
type Trending struct {
	Period          string `json:"period"`
	Region          string `json:"region"`
	TrendingThreats []struct {
		ThreatType string `json:"threat_type"`
		Severity   string `json:"severity"`
		Category   string `json:"category"`
		Frequency  int    `json:"frequency"`
		AlertLevel string `json:"alert_level"`
	} `json:"trending_threats"`
}

// IntelFilter narrows ListIntel. Zero values match everything.
type IntelFilter struct {
	Region     string
	Day        time.Time
	Escalation string
	Limit      int
}

// IntelRecord aggregates detections of one threat in one region on one day.
type IntelRecord struct {
	IntelID           int64     `json:"intel_id"`
	ThreatID          int64     `json:"threat_id"`
	ReportedDay       time.Time `json:"reported_day"`
	SourceRegion      string    `json:"source_region"`
	AffectedCarriers  []string  `json:"affected_carriers"`
	Frequency         int       `json:"frequency"`
	AffectedUserCount int       `json:"affected_user_count"`
	TrendScore        float64   `json:"trend_score"`
	EscalationLevel   string    `json:"escalation_level"`
	MitigationStatus  string    `json:"mitigation_status"`
}

// Summary holds scan totals for a period.
type Summary struct {
	TotalScans         int     `json:"total_scans"`
	ThreatsDetected    int     `json:"threats_detected"`
	AverageThreatScore float64 `json:"average_threat_score"`
	ThreatPercentage   float64 `json:"threat_percentage"`
	ByContentType      map[string]struct {
		Total   int `json:"total"`
		Threats int `json:"threats"`
	} `json:"by_content_type"`
}

// UserStats is a user's scan summary.
type UserStats struct {
	UserID     int64 `json:"user_id"`
	PeriodDays int   `json:"period_days"`
	Summary
}

// NationalStats is the country-wide scan summary.
type NationalStats struct {
	PeriodDays int `json:"period_days"`
	Summary
	MostCommonThreats []struct {
		ThreatType string `json:"threat_type"`
		Count      int    `json:"count"`
	} `json:"most_common_threats"`
}
