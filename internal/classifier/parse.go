package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// reply mirrors Result with pointer fields so missing keys can be told
// apart from zero values.
type reply struct {
	ThreatDetected  *bool    `json:"threat_detected"`
	Score           *float64 `json:"score"`
	ThreatType      string   `json:"threat_type"`
	Severity        string   `json:"severity"`
	Explanation     string   `json:"explanation"`
	RedFlags        []string `json:"red_flags"`
	SafeActions     []string `json:"safe_actions"`
	CulturalContext string   `json:"cultural_context"`
}

// Parse turns raw model text into a Result. Markdown code fences around the
// JSON are stripped. Any reply that is not valid JSON of the expected shape
// yields Fallback and a non-nil error describing why, so callers can log
// it; the returned Result is always usable.
func Parse(text string) (*Result, error) {
	clean := stripFences(text)

	var r reply
	if err := json.Unmarshal([]byte(clean), &r); err != nil {
		return Fallback(), fmt.Errorf("decode reply: %w", err)
	}
	if r.ThreatDetected == nil {
		return Fallback(), fmt.Errorf("reply missing threat_detected")
	}
	if r.Score == nil || *r.Score < 0 || *r.Score > 100 {
		return Fallback(), fmt.Errorf("reply score missing or outside [0,100]")
	}
	severity, ok := normalizeSeverity(r.Severity)
	if !ok {
		return Fallback(), fmt.Errorf("reply severity %q not recognised", r.Severity)
	}

	res := &Result{
		ThreatDetected:  *r.ThreatDetected,
		Score:           *r.Score,
		ThreatType:      r.ThreatType,
		Severity:        severity,
		Explanation:     r.Explanation,
		RedFlags:        r.RedFlags,
		SafeActions:     r.SafeActions,
		CulturalContext: r.CulturalContext,
	}
	if res.RedFlags == nil {
		res.RedFlags = []string{}
	}
	if res.SafeActions == nil {
		res.SafeActions = []string{}
	}
	return res, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var severities = []string{"Low", "Medium", "High", "Critical"}

// normalizeSeverity matches s against the known levels ignoring case and
// surrounding space, returning the canonical spelling.
func normalizeSeverity(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, level := range severities {
		if strings.EqualFold(s, level) {
			return level, true
		}
	}
	return "", false
}
