package model

import "time"

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusAborted   JobStatus = "aborted"
)

// Job is one video-cleaning request: a source video plus a reference
// screenshot, processed into a trimmed output file.
type Job struct {
	ID            int64     `json:"id"`
	SourcePath    string    `json:"sourcePath"`
	ReferencePath string    `json:"referencePath"`
	OutputPath    string    `json:"outputPath,omitempty"`
	Status        JobStatus `json:"status"`
	Duration      float64   `json:"duration,omitempty"`
	FramesScanned int       `json:"framesScanned,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
