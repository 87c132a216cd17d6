package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLMProvider struct {
	respond func(prompt string) (string, error)
}

func (f *fakeLLMProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return f.respond(prompt)
}

func domainChunk(id uuid.UUID, importance float64, domain string) *model.Chunk {
	importanceCopy := importance
	domainCopy := domain
	return &model.Chunk{
		ID:                  id,
		Content:             "chunk body content",
		ImportanceScore:     &importanceCopy,
		Domain:              model.DomainTag{PrimaryDomain: &domainCopy},
		TargetDocumentTitle: "Target Doc",
	}
}

func TestRunBridge(t *testing.T) {
	docID := uuid.New()

	t.Run("emits a bridge above the strength threshold", func(t *testing.T) {
		source := domainChunk(uuid.New(), 0.8, "physics")
		candidate := domainChunk(uuid.New(), 0.7, "biology")

		chunks := &fakeChunkSource{
			sourceChunks:    []*model.Chunk{source},
			candidateChunks: []*model.Chunk{candidate},
		}
		llm := &fakeLLMProvider{respond: func(prompt string) (string, error) {
			return `{"bridges":[{"targetIndex":0,"bridgeType":"conceptual","strength":0.82,"explanation":"shared mechanism","bridgeConcepts":["entropy"]}]}`, nil
		}}

		cfg := model.DefaultBridgeConfig()
		connections, err := RunBridge(context.Background(), chunks, llm, docID, cfg, nil)
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.Equal(t, source.ID, connections[0].SourceChunkID)
		assert.Equal(t, candidate.ID, connections[0].TargetChunkID)
		assert.InDelta(t, 0.82, connections[0].Strength, 0.0001)
		assert.Equal(t, "conceptual", connections[0].Metadata["bridge_type"])
	})

	t.Run("drops bridges below min_strength", func(t *testing.T) {
		source := domainChunk(uuid.New(), 0.8, "physics")
		candidate := domainChunk(uuid.New(), 0.7, "biology")

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: []*model.Chunk{candidate}}
		llm := &fakeLLMProvider{respond: func(prompt string) (string, error) {
			return `{"bridges":[{"targetIndex":0,"bridgeType":"conceptual","strength":0.1,"explanation":"weak"}]}`, nil
		}}

		connections, err := RunBridge(context.Background(), chunks, llm, docID, model.DefaultBridgeConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("skips sources with no cross-domain candidates", func(t *testing.T) {
		source := domainChunk(uuid.New(), 0.8, "physics")
		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}}
		llm := &fakeLLMProvider{respond: func(prompt string) (string, error) {
			t.Fatal("should not call the LLM with no candidates")
			return "", nil
		}}

		connections, err := RunBridge(context.Background(), chunks, llm, docID, model.DefaultBridgeConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("a malformed batch is skipped without failing the run", func(t *testing.T) {
		source := domainChunk(uuid.New(), 0.8, "physics")
		candidate := domainChunk(uuid.New(), 0.7, "biology")
		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: []*model.Chunk{candidate}}
		llm := &fakeLLMProvider{respond: func(prompt string) (string, error) {
			return "the model refused to answer", nil
		}}

		connections, err := RunBridge(context.Background(), chunks, llm, docID, model.DefaultBridgeConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("excludes non-body and excluded-label source chunks", func(t *testing.T) {
		excludedLayer := model.ContentLayer("HEADER")
		source := domainChunk(uuid.New(), 0.8, "physics")
		source.ContentLayer = &excludedLayer
		labeled := domainChunk(uuid.New(), 0.8, "physics")
		excludedLabel := model.ContentLabelFootnote
		labeled.ContentLabel = &excludedLabel

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source, labeled}}
		llm := &fakeLLMProvider{respond: func(prompt string) (string, error) {
			t.Fatal("should not process an excluded-layer or excluded-label source chunk")
			return "", nil
		}}

		connections, err := RunBridge(context.Background(), chunks, llm, docID, model.DefaultBridgeConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("per-chunk mode skips the importance pre-filter", func(t *testing.T) {
		sourceID := uuid.New()
		source := domainChunk(sourceID, 0.2, "physics")
		candidate := domainChunk(uuid.New(), 0.7, "biology")

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: []*model.Chunk{candidate}}
		llm := &fakeLLMProvider{respond: func(prompt string) (string, error) {
			return fmt.Sprintf(`{"bridges":[{"targetIndex":0,"bridgeType":"causal","strength":0.9,"explanation":"x"}]}`), nil
		}}

		cfg := model.DefaultBridgeConfig()
		cfg.SourceChunkIDs = []uuid.UUID{sourceID}

		connections, err := RunBridge(context.Background(), chunks, llm, docID, cfg, nil)
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.True(t, chunks.lastSourceOpts.ImportanceThreshold == nil)
	})
}
