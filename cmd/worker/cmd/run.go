package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/core/ann"
	"github.com/motifkb/connectengine/core/jobhandler"
	"github.com/motifkb/connectengine/core/llmadapter"
	"github.com/motifkb/connectengine/core/orchestrator"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
	"github.com/spf13/cobra"
)

// chunkEmbeddingDim is the VECTOR(N) width chunks are stored at (§11
// DOMAIN STACK, pgvector-go).
const chunkEmbeddingDim = 768

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [job-id]",
		Short: "Run the orchestrator for one background_jobs row",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			raw := os.Getenv("JOB_ID")
			if len(args) > 0 {
				raw = args[0]
			}
			jobID, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid job id: %w", err)
			}
			return runJob(jobID)
		},
	}
}

func runJob(jobID uuid.UUID) error {
	logger := newLogger()

	db, err := openDatabase("connectengine-worker", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Handlers load their SQL functions on construction; documents first
	// since chunks references it, mirroring the teacher's init order.
	// force=false: don't reload functions that already exist.
	if _, err := database.NewDocumentsDBHandler(db, false); err != nil {
		return err
	}

	chunks, err := database.NewChunksDBHandler(db, chunkEmbeddingDim, false)
	if err != nil {
		return err
	}

	connections, err := database.NewConnectionsDBHandler(db, false)
	if err != nil {
		return err
	}

	jobs, err := database.NewJobsDBHandler(db, false)
	if err != nil {
		return err
	}

	searcher := ann.NewSearcher(chunks)

	llmConfig, err := helper.NewLLMConfiguration()
	if err != nil {
		return err
	}

	cfg := model.DefaultOrchestratorConfig()
	var llm llmadapter.Provider
	if bridgeEnabled(cfg) {
		if err := llmConfig.RequireAPIKey(); err != nil {
			return err
		}
		llm = llmadapter.NewOpenAICompatProvider(llmadapter.Config{
			APIKey:  llmConfig.APIKey,
			BaseURL: llmConfig.BaseURL,
			Model:   llmConfig.Model,
			Timeout: llmConfig.Timeout,
		})
	}

	proc := orchestrator.New(chunks, searcher, connections, llm, logger)
	handler := jobhandler.New(jobs, proc, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := handler.HandleDetectConnections(ctx, jobID, cfg); err != nil {
		return err
	}

	logger.Info("worker: job completed", "job_id", jobID)
	return nil
}

func bridgeEnabled(cfg model.OrchestratorConfig) bool {
	for _, engineType := range cfg.EnabledEngines {
		if engineType == model.ConnectionTypeThematicBridge {
			return true
		}
	}
	return false
}
