package model

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a DetectionJob (§3).
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// DetectionJob is the queue record the job handler (C8) consumes and
// mutates. The queue itself is external (§1); the core only writes the
// fields below (§3).
type DetectionJob struct {
	ID              uuid.UUID  `json:"id"`
	Status          JobStatus  `json:"status"`
	ProgressPercent int        `json:"progress_percent"`
	ProgressStage   string     `json:"progress_stage"`
	ProgressMessage string     `json:"progress_message"`
	LastHeartbeat   time.Time  `json:"last_heartbeat"`
	InputData       Metadata   `json:"input_data"`
	OutputData      Metadata   `json:"output_data,omitempty"`
	LastError       *string    `json:"last_error,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// DetectionJobInput is the parsed shape of DetectionJob.InputData (§6 "Job
// I/O").
type DetectionJobInput struct {
	DocumentID uuid.UUID   `json:"document_id"`
	UserID     uuid.UUID   `json:"user_id"`
	ChunkIDs   []uuid.UUID `json:"chunk_ids,omitempty"`
	Trigger    string      `json:"trigger,omitempty"`
}

// DetectionJobOutput is the shape written to DetectionJob.OutputData on
// completion or failure (§4.8, §6).
type DetectionJobOutput struct {
	Success         bool           `json:"success"`
	DocumentID      uuid.UUID      `json:"document_id"`
	TotalConnections int           `json:"totalConnections,omitempty"`
	ByEngine        map[string]int `json:"byEngine,omitempty"`
	ExecutionTimeMs int64          `json:"executionTime,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Progress reports the orchestrator's coarse-mapped band position so the
// job handler can push it onto the job record (§4.7 "Progress").
type Progress struct {
	Percent int
	Stage   string
	Message string
}
