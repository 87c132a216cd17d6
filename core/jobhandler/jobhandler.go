// Package jobhandler is C8: it drives one background_jobs row through
// ProcessDocument and writes back the job's terminal state (spec §4.8).
package jobhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/core/orchestrator"
	"github.com/motifkb/connectengine/model"
)

// HeartbeatInterval is the ticker period the job handler refreshes
// last_heartbeat at while ProcessDocument runs, safely under §5's 30s
// requirement.
const HeartbeatInterval = 20 * time.Second

// JobStore is the subset of JobsDBHandler the job handler drives.
type JobStore interface {
	SelectJob(id uuid.UUID) (*model.DetectionJob, error)
	UpdateJobProgress(id uuid.UUID, status model.JobStatus, progressPercent int, stage, message string) error
	UpdateJobHeartbeat(id uuid.UUID) error
	CompleteJob(id uuid.UUID, status model.JobStatus, outputData model.Metadata, lastError *string) error
}

// Processor is the orchestrator contract the job handler calls into.
type Processor interface {
	ProcessDocument(ctx context.Context, documentID uuid.UUID, cfg model.OrchestratorConfig, onProgress orchestrator.OnProgress) (orchestrator.Result, error)
}

// Handler is C8.
type Handler struct {
	jobs      JobStore
	processor Processor
	logger    *slog.Logger
}

// New builds a Handler over the given job store and orchestrator.
func New(jobs JobStore, processor Processor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{jobs: jobs, processor: processor, logger: logger}
}

// HandleDetectConnections drives jobID through its full lifecycle (§4.8):
// acknowledge, run the orchestrator with a heartbeat ticker alive for the
// duration, then write the terminal state. The returned error is the
// unrecoverable failure re-raised for the caller's queue to record (§4.8
// step 4 "Re-raise so the queue can record the exception").
func (h *Handler) HandleDetectConnections(ctx context.Context, jobID uuid.UUID, cfg model.OrchestratorConfig) error {
	job, err := h.jobs.SelectJob(jobID)
	if err != nil {
		return fmt.Errorf("jobhandler: select job %s: %w", jobID, err)
	}

	var input model.DetectionJobInput
	if err := json.Unmarshal(mustMarshal(job.InputData), &input); err != nil {
		return h.fail(jobID, uuid.Nil, fmt.Errorf("jobhandler: decode input_data: %w", err))
	}
	if len(input.ChunkIDs) > 0 {
		cfg.SourceChunkIDs = input.ChunkIDs
	}

	if err := h.jobs.UpdateJobProgress(jobID, model.JobStatusProcessing, 0, "", "starting detection"); err != nil {
		return fmt.Errorf("jobhandler: mark processing: %w", err)
	}

	stop := h.startHeartbeat(ctx, jobID)
	defer stop()

	result, err := h.processor.ProcessDocument(ctx, input.DocumentID, cfg, func(p model.Progress) {
		if err := h.jobs.UpdateJobProgress(jobID, model.JobStatusProcessing, p.Percent, p.Stage, p.Message); err != nil {
			h.logger.Warn("jobhandler: progress update failed", "job_id", jobID, "error", err)
		}
	})
	if err != nil {
		return h.fail(jobID, input.DocumentID, err)
	}

	byEngine := make(map[string]int, len(result.ByEngine))
	for engineType, count := range result.ByEngine {
		byEngine[string(engineType)] = count
	}

	output := model.DetectionJobOutput{
		Success:          true,
		DocumentID:       input.DocumentID,
		TotalConnections: result.TotalConnections,
		ByEngine:         byEngine,
		ExecutionTimeMs:  result.ExecutionTimeMs,
	}
	if err := h.jobs.CompleteJob(jobID, model.JobStatusCompleted, outputMetadata(output), nil); err != nil {
		return fmt.Errorf("jobhandler: complete job: %w", err)
	}

	h.logger.Info("detection job completed",
		"job_id", jobID, "document_id", input.DocumentID,
		"total_connections", result.TotalConnections, "execution_time_ms", result.ExecutionTimeMs)

	return nil
}

func (h *Handler) fail(jobID, documentID uuid.UUID, cause error) error {
	message := cause.Error()
	output := model.DetectionJobOutput{Success: false, DocumentID: documentID, Error: message}
	if err := h.jobs.CompleteJob(jobID, model.JobStatusFailed, outputMetadata(output), &message); err != nil {
		h.logger.Error("jobhandler: failed to record job failure", "job_id", jobID, "original_error", cause, "error", err)
	}
	return cause
}

// startHeartbeat runs a ticker that refreshes last_heartbeat until the
// returned stop function is called (§12 supplement "Job heartbeat ticker").
func (h *Handler) startHeartbeat(ctx context.Context, jobID uuid.UUID) func() {
	ticker := time.NewTicker(HeartbeatInterval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := h.jobs.UpdateJobHeartbeat(jobID); err != nil {
					h.logger.Warn("jobhandler: heartbeat update failed", "job_id", jobID, "error", err)
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

func outputMetadata(output model.DetectionJobOutput) model.Metadata {
	return model.Metadata{
		"success":          output.Success,
		"document_id":      output.DocumentID.String(),
		"totalConnections": output.TotalConnections,
		"byEngine":         output.ByEngine,
		"executionTime":    output.ExecutionTimeMs,
		"error":            output.Error,
	}
}

func mustMarshal(m model.Metadata) []byte {
	b, _ := json.Marshal(m)
	return b
}
