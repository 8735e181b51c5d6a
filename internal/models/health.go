package models

import "time"

// Attempt outcomes recorded by the upstream client.
const (
	AttemptSuccess = "success"
	AttemptFailure = "failure"
)

// UpstreamAttempt describes one try against one candidate base URL.
type UpstreamAttempt struct {
	Operation  string        `json:"operation"`
	BaseURL    string        `json:"base_url"`
	Outcome    string        `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// HealthResult is the outcome of probing the candidate list.
type HealthResult struct {
	Online     bool              `json:"online"`
	BaseURL    string            `json:"base_url,omitempty"`
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Attempts   []UpstreamAttempt `json:"attempts"`
	ObservedAt time.Time         `json:"observed_at"`
}

// HealthStatusOffline is reported when every candidate failed its probe.
const HealthStatusOffline = "all_offline"
