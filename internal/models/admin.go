package models

import "time"

// AdminSnapshot holds both review partitions as fetched together.
type AdminSnapshot struct {
	Pending  []Material `json:"pending"`
	Approved []Material `json:"approved"`
	LoadedAt time.Time  `json:"loaded_at"`
}

// Admin actions exposed by the dashboard.
const (
	AdminActionApprove = "approve"
	AdminActionDelete  = "delete"
)
