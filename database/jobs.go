package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
	loadSql "github.com/motifkb/connectengine/sql"
)

// JobsDBHandlerFunctions defines the interface for the background job
// lifecycle operations the job handler drives (§4.8, §5).
type JobsDBHandlerFunctions interface {
	SelectJob(id uuid.UUID) (*model.DetectionJob, error)
	UpdateJobProgress(id uuid.UUID, status model.JobStatus, progressPercent int, stage, message string) error
	UpdateJobHeartbeat(id uuid.UUID) error
	CompleteJob(id uuid.UUID, status model.JobStatus, outputData model.Metadata, lastError *string) error
}

// JobsDBHandler manages background_jobs rows. The core consumes one job
// record and updates its lifecycle fields; it does not implement the queue
// itself (§3).
type JobsDBHandler struct {
	db *helper.Database
}

// NewJobsDBHandler creates a new jobs database handler and loads its SQL
// functions.
func NewJobsDBHandler(db *helper.Database, force bool) (*JobsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &JobsDBHandler{db: db}

	if err := loadSql.LoadJobsSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load jobs sql", err)
	}

	db.Logger.Info("initialized JobsDBHandler")

	return h, nil
}

// SelectJob reads the job record that seeds HandleDetectConnections (§4.8
// "a job record whose input_data contains at least document_id").
func (h *JobsDBHandler) SelectJob(id uuid.UUID) (*model.DetectionJob, error) {
	job := &model.DetectionJob{}
	row := h.db.Instance.QueryRow(`SELECT * FROM select_job($1)`, id)
	if err := row.Scan(
		&job.ID,
		&job.Status,
		&job.ProgressPercent,
		&job.ProgressStage,
		&job.ProgressMessage,
		&job.LastHeartbeat,
		&job.InputData,
		&job.OutputData,
		&job.LastError,
		&job.CompletedAt,
	); err != nil {
		return nil, helper.NewError("scan job", err)
	}
	return job, nil
}

// UpdateJobProgress advances a job's status/percent/stage/message together
// (§4.8 progress band mapping), refreshing last_heartbeat.
func (h *JobsDBHandler) UpdateJobProgress(id uuid.UUID, status model.JobStatus, progressPercent int, stage, message string) error {
	_, err := h.db.Instance.Exec(
		`SELECT update_job_progress($1, $2, $3, $4, $5)`,
		id, status, progressPercent, stage, message,
	)
	if err != nil {
		return helper.NewError("update job progress", err)
	}
	return nil
}

// UpdateJobHeartbeat refreshes last_heartbeat only, called by the heartbeat
// ticker during long E-BRI runs so external watchdogs do not consider the
// worker dead (§5 "at least every 30s").
func (h *JobsDBHandler) UpdateJobHeartbeat(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT update_job_heartbeat($1)`, id)
	if err != nil {
		return helper.NewError("update job heartbeat", err)
	}
	return nil
}

// CompleteJob writes the terminal state: completed or failed, with the
// orchestrator's aggregate counts or the unrecoverable error (§4.8, §5
// "job transitions to failed only on unrecoverable errors").
func (h *JobsDBHandler) CompleteJob(id uuid.UUID, status model.JobStatus, outputData model.Metadata, lastError *string) error {
	_, err := h.db.Instance.Exec(
		`SELECT complete_job($1, $2, $3, $4)`,
		id, status, outputData, lastError,
	)
	if err != nil {
		return helper.NewError("complete job", err)
	}
	return nil
}
