package dto

import "time"

// ScanResponse represents a scan in API responses
type ScanResponse struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"projectId"`
	Status       string     `json:"status"`
	TotalQueries int        `json:"totalQueries"`
	TotalResults int        `json:"totalResults"`
	TotalCostUsd string     `json:"totalCostUsd,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// QueueEntryResponse represents a queue entry in API responses
type QueueEntryResponse struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"projectId"`
	ScanID          string     `json:"scanId,omitempty"`
	Status          string     `json:"status"`
	ProgressCurrent int        `json:"progressCurrent"`
	ProgressTotal   int        `json:"progressTotal"`
	ProgressMessage string     `json:"progressMessage,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
}

// ActiveWorkResponse pairs a queue entry with its scan, when one exists
type ActiveWorkResponse struct {
	Entry QueueEntryResponse `json:"entry"`
	Scan  *ScanResponse      `json:"scan,omitempty"`
}

// ActiveScansResponse wraps a user's active work
type ActiveScansResponse struct {
	UserID string               `json:"userId"`
	Active []ActiveWorkResponse `json:"active"`
}

// DispatchResponse reports what a dispatch cycle did
type DispatchResponse struct {
	ProjectsDue    int `json:"projectsDue"`
	EntriesQueued  int `json:"entriesQueued"`
	WorkersSpawned int `json:"workersSpawned"`
}

// CleanupResponse reports what a forced sweep repaired
type CleanupResponse struct {
	StuckScans      int `json:"stuckScans"`
	OrphanedEntries int `json:"orphanedEntries"`
}
