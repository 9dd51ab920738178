package webhooks

import (
	"time"
)

// Event types dispatched by the system.
const (
	EventIntelEscalated = "intel.escalated"
)

// Event is posted as JSON to every configured endpoint.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Delivery is the outcome of delivering one event to one endpoint.
type Delivery struct {
	URL        string
	EventType  string
	StatusCode int
	Attempts   int
	Success    bool
	Err        string
}
