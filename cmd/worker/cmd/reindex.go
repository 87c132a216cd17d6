package cmd

import (
	"context"
	"fmt"

	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
	"github.com/spf13/cobra"
)

func newReindexCmd() *cobra.Command {
	var (
		indexType      string
		m              int
		efConstruction int
		lists          int
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the chunk embedding ANN index",
		Long: `Drops and recreates the chunk embedding index under a new type or
parameter set. Use this after a recall/latency regression is observed, or
before switching the deployment's ANN index family (hnsw <-> ivfflat).`,
		RunE: func(command *cobra.Command, args []string) error {
			cfg := model.DefaultIndexRebuildConfig(model.VectorIndexType(indexType))
			if m > 0 {
				cfg.M = m
			}
			if efConstruction > 0 {
				cfg.EfConstruction = efConstruction
			}
			if lists > 0 {
				cfg.Lists = lists
			}
			return rebuildIndex(cfg)
		},
	}

	cmd.Flags().StringVar(&indexType, "type", string(model.VectorIndexHNSW), "index type: hnsw or ivfflat")
	cmd.Flags().IntVar(&m, "m", 0, "HNSW m (default 16)")
	cmd.Flags().IntVar(&efConstruction, "ef-construction", 0, "HNSW ef_construction (default 64)")
	cmd.Flags().IntVar(&lists, "lists", 0, "IVFFlat lists (default 100)")

	return cmd
}

func rebuildIndex(cfg model.IndexRebuildConfig) error {
	logger := newLogger()

	db, err := openDatabase("connectengine-reindex", logger)
	if err != nil {
		return err
	}
	defer db.Close()

	chunks, err := database.NewChunksDBHandler(db, chunkEmbeddingDim, false)
	if err != nil {
		return err
	}

	if err := chunks.RebuildEmbeddingIndex(context.Background(), cfg); err != nil {
		return fmt.Errorf("rebuild embedding index: %w", err)
	}

	logger.Info("worker: embedding index rebuilt", "type", cfg.Type)
	return nil
}
