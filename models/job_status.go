package models

import "time"

// JobStatus is the in-memory execution record for one scheduled job. It is
// never persisted; a restart starts every job fresh.
type JobStatus struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	IsRunning  bool       `json:"is_running"`
	ErrorCount int        `json:"error_count"`
	LastError  *string    `json:"last_error,omitempty"`
}
