package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSemanticConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultSemanticConfig()

		assert.Equal(t, 0.7, config.SimilarityThreshold)
		assert.Equal(t, 50, config.MaxResultsPerChunk)
		assert.True(t, config.CrossDocumentOnly)
		assert.True(t, config.CurrentOrBatch.IsCurrent())
	})
}

func TestDefaultContradictionConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultContradictionConfig()

		assert.Equal(t, 0.5, config.MinConceptOverlap)
		assert.Equal(t, 0.3, config.PolarityThreshold)
		assert.Equal(t, 20, config.MaxResultsPerChunk)
		assert.True(t, config.CrossDocumentOnly)
		assert.False(t, config.EnableNegationDetection)
	})
}

func TestDefaultBridgeConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultBridgeConfig()

		assert.Equal(t, 0.6, config.MinImportance)
		assert.Equal(t, 0.6, config.MinStrength)
		assert.Equal(t, 50, config.MaxSourceChunks)
		assert.Equal(t, 10, config.MaxCandidatesPerSource)
		assert.Equal(t, 5, config.BatchSize)
	})

	t.Run("PerChunkMode is false with no source_chunk_ids", func(t *testing.T) {
		config := DefaultBridgeConfig()
		assert.False(t, config.PerChunkMode())
	})

	t.Run("PerChunkMode is true once source_chunk_ids is set", func(t *testing.T) {
		config := DefaultBridgeConfig()
		config.SourceChunkIDs = []uuid.UUID{uuid.New()}
		assert.True(t, config.PerChunkMode())
	})
}

func TestDefaultOrchestratorConfig(t *testing.T) {
	t.Run("Enables all three engines", func(t *testing.T) {
		config := DefaultOrchestratorConfig()

		require.Len(t, config.EnabledEngines, 3)
		assert.True(t, config.EngineEnabled(ConnectionTypeSemanticSimilarity))
		assert.True(t, config.EngineEnabled(ConnectionTypeContradiction))
		assert.True(t, config.EngineEnabled(ConnectionTypeThematicBridge))
	})

	t.Run("Unknown engine type is not enabled", func(t *testing.T) {
		config := DefaultOrchestratorConfig()
		assert.False(t, config.EngineEnabled(ConnectionType("unknown")))
	})
}

func TestOrchestratorConfig_Propagate(t *testing.T) {
	t.Run("Propagates source_chunk_ids to every engine", func(t *testing.T) {
		config := DefaultOrchestratorConfig()
		chunkID := uuid.New()
		config.SourceChunkIDs = []uuid.UUID{chunkID}

		config.Propagate()

		assert.Equal(t, []uuid.UUID{chunkID}, config.Semantic.SourceChunkIDs)
		assert.Equal(t, []uuid.UUID{chunkID}, config.Contradiction.SourceChunkIDs)
		assert.Equal(t, []uuid.UUID{chunkID}, config.Bridge.SourceChunkIDs)
	})

	t.Run("Propagates target_document_ids to every engine", func(t *testing.T) {
		config := DefaultOrchestratorConfig()
		docID := uuid.New()
		config.TargetDocumentIDs = []uuid.UUID{docID}

		config.Propagate()

		assert.Equal(t, []uuid.UUID{docID}, config.Semantic.TargetDocumentIDs)
		assert.Equal(t, []uuid.UUID{docID}, config.Contradiction.TargetDocumentIDs)
		assert.Equal(t, []uuid.UUID{docID}, config.Bridge.TargetDocumentIDs)
	})

	t.Run("Leaves sub-configs untouched when nothing to propagate", func(t *testing.T) {
		config := DefaultOrchestratorConfig()

		config.Propagate()

		assert.Empty(t, config.Semantic.SourceChunkIDs)
		assert.Empty(t, config.Semantic.TargetDocumentIDs)
	})
}
