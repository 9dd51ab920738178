package analytics

// ContentTypeStats counts scans of one content type.
type ContentTypeStats struct {
	Total   int `json:"total"`
	Threats int `json:"threats"`
}

// Summary aggregates detection scores over a period.
type Summary struct {
	TotalScans         int                         `json:"total_scans"`
	ThreatsDetected    int                         `json:"threats_detected"`
	AverageThreatScore float64                     `json:"average_threat_score"`
	ThreatPercentage   float64                     `json:"threat_percentage"`
	ByContentType      map[string]ContentTypeStats `json:"by_content_type"`
}

// UserStats is a Summary of one user's scans.
type UserStats struct {
	UserID     int64 `json:"user_id"`
	PeriodDays int   `json:"period_days"`
	Summary
}

// ThreatCount is a catalog type and how many scans resolved to it.
type ThreatCount struct {
	ThreatType string `json:"threat_type"`
	Count      int    `json:"count"`
}

// NationalStats is a Summary of every scan in the period.
type NationalStats struct {
	PeriodDays int `json:"period_days"`
	Summary
	MostCommonThreats []ThreatCount `json:"most_common_threats"`
}

// TrendingThreat is a catalog entry ranked by recent scan frequency.
type TrendingThreat struct {
	ThreatType string `json:"threat_type"`
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Frequency  int    `json:"frequency"`
	PeriodDays int    `json:"period_days"`
	AlertLevel string `json:"alert_level"`
}

// Trending is the response of the trending threats query.
type Trending struct {
	Period          string           `json:"period"`
	Region          string           `json:"region"`
	TrendingThreats []TrendingThreat `json:"trending_threats"`
}

// Performance reports scan throughput.
type Performance struct {
	PeriodHours  int     `json:"period_hours"`
	TotalScans   int     `json:"total_scans"`
	ScansPerHour float64 `json:"scans_per_hour"`
}

// ContentTypeAgg is one GROUP BY content_type row.
type ContentTypeAgg struct {
	ContentType string
	Total       int
	Threats     int
	ScoreSum    float64
}
