package dto

import "time"

// AdminDashboardResponse carries both partitions with display data.
type AdminDashboardResponse struct {
	Pending       []MaterialCard `json:"pending"`
	Approved      []MaterialCard `json:"approved"`
	PendingCount  int            `json:"pendingCount"`
	ApprovedCount int            `json:"approvedCount"`
	LoadedAt      time.Time      `json:"loadedAt"`
}
