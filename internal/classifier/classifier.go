// Package classifier wraps the external LLM that scores suspicious content.
//
// The contract is fixed: callers send content and its channel, and get back
// a Result. A model reply that cannot be understood is replaced by a
// deterministic safe Fallback; only a failed call surfaces as an error.
package classifier

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the classifier could not be reached or
// produced no reply at all.
var ErrUnavailable = errors.New("classifier unavailable")

// ContentType is the channel a piece of content arrived on.
type ContentType string

const (
	ContentSMS        ContentType = "sms"
	ContentCall       ContentType = "call"
	ContentAppMessage ContentType = "app_message"
)

// Valid reports whether ct is a known content type.
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentSMS, ContentCall, ContentAppMessage:
		return true
	}
	return false
}

// Result is the classifier verdict for one piece of content.
type Result struct {
	ThreatDetected  bool     `json:"threat_detected"`
	Score           float64  `json:"score"`
	ThreatType      string   `json:"threat_type"`
	Severity        string   `json:"severity"`
	Explanation     string   `json:"explanation"`
	RedFlags        []string `json:"red_flags"`
	SafeActions     []string `json:"safe_actions"`
	CulturalContext string   `json:"cultural_context"`
}

// Classifier scores content for threats.
type Classifier interface {
	Classify(ctx context.Context, content string, ct ContentType) (*Result, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, content string, ct ContentType) (*Result, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, content string, ct ContentType) (*Result, error) {
	return f(ctx, content, ct)
}

// Fallback is the verdict used when a reply cannot be parsed.
func Fallback() *Result {
	return &Result{
		ThreatDetected: false,
		Score:          0,
		ThreatType:     "Analysis Error",
		Severity:       "Low",
		Explanation:    "Unable to parse AI response. Content appears safe.",
		RedFlags:       []string{},
		SafeActions:    []string{"Review content manually", "Contact official channels if suspicious"},
	}
}
