package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(t *testing.T, db *helper.Database, documentID uuid.UUID) uuid.UUID {
	t.Helper()
	jobID := uuid.New()
	_, err := db.Instance.Exec(
		`INSERT INTO background_jobs (id, status, input_data) VALUES ($1, 'pending', $2)`,
		jobID, model.Metadata{"document_id": documentID.String()},
	)
	require.NoError(t, err)
	return jobID
}

func TestNewJobsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("valid call", func(t *testing.T) {
		h, err := NewJobsDBHandler(database, true)
		assert.NoError(t, err)
		require.NotNil(t, h)
	})

	t.Run("nil database", func(t *testing.T) {
		_, err := NewJobsDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestJobLifecycle(t *testing.T) {
	database := initDB(t)

	h, err := NewJobsDBHandler(database, true)
	require.NoError(t, err)

	docID := uuid.New()
	jobID := seedJob(t, database, docID)

	t.Run("selects the seeded job", func(t *testing.T) {
		job, err := h.SelectJob(jobID)
		assert.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Equal(t, 0, job.ProgressPercent)
	})

	t.Run("updates progress", func(t *testing.T) {
		err := h.UpdateJobProgress(jobID, model.JobStatusProcessing, 40, "semantic_similarity", "running E-SEM")
		assert.NoError(t, err)

		job, err := h.SelectJob(jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusProcessing, job.Status)
		assert.Equal(t, 40, job.ProgressPercent)
		assert.Equal(t, "semantic_similarity", job.ProgressStage)
	})

	t.Run("refreshes heartbeat without disturbing progress", func(t *testing.T) {
		before, err := h.SelectJob(jobID)
		require.NoError(t, err)

		err = h.UpdateJobHeartbeat(jobID)
		assert.NoError(t, err)

		after, err := h.SelectJob(jobID)
		require.NoError(t, err)
		assert.Equal(t, before.ProgressPercent, after.ProgressPercent)
		assert.True(t, !after.LastHeartbeat.Before(before.LastHeartbeat))
	})

	t.Run("completes successfully", func(t *testing.T) {
		output := model.Metadata{"success": true, "totalConnections": 3}
		err := h.CompleteJob(jobID, model.JobStatusCompleted, output, nil)
		assert.NoError(t, err)

		job, err := h.SelectJob(jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.Equal(t, 100, job.ProgressPercent)
		assert.NotNil(t, job.CompletedAt)
		assert.Nil(t, job.LastError)
	})
}

func TestJobFailure(t *testing.T) {
	database := initDB(t)

	h, err := NewJobsDBHandler(database, true)
	require.NoError(t, err)

	docID := uuid.New()
	jobID := seedJob(t, database, docID)

	errMsg := "cancelled"
	err = h.CompleteJob(jobID, model.JobStatusFailed, model.Metadata{"success": false}, &errMsg)
	assert.NoError(t, err)

	job, err := h.SelectJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.LastError)
	assert.Equal(t, "cancelled", *job.LastError)
}
