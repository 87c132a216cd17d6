package database

import (
	"context"
	"fmt"
	"time"

	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
)

// RebuildEmbeddingIndex drops and recreates the chunk embedding ANN index
// under a new type/parameter set (§12 "vector index management"). It is an
// operational maintenance path, not part of the detection request flow: the
// orchestrator never calls it, a separate maintenance entry point does.
func (h *ChunksDBHandler) RebuildEmbeddingIndex(ctx context.Context, cfg model.IndexRebuildConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	createIndexSQL, err := buildIndexDDL(cfg)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	if _, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_chunks_embedding;`); err != nil {
		return helper.NewError("drop index", err)
	}
	h.db.Logger.Info("dropped existing vector index")

	if _, err := h.db.Instance.ExecContext(ctx, createIndexSQL); err != nil {
		return helper.NewError("create index", err)
	}
	h.db.Logger.Info("rebuilt vector index", "type", cfg.Type, "m", cfg.M, "ef_construction", cfg.EfConstruction, "lists", cfg.Lists)

	return nil
}

func buildIndexDDL(cfg model.IndexRebuildConfig) (string, error) {
	switch cfg.Type {
	case model.VectorIndexHNSW:
		m, ef := cfg.M, cfg.EfConstruction
		if m <= 0 {
			m = 16
		}
		if ef <= 0 {
			ef = 64
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, ef,
		), nil

	case model.VectorIndexIVFFlat:
		lists := cfg.Lists
		if lists <= 0 {
			lists = 100
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		), nil

	default:
		return "", fmt.Errorf("unsupported index type: %q (use %q or %q)", cfg.Type, model.VectorIndexHNSW, model.VectorIndexIVFFlat)
	}
}
