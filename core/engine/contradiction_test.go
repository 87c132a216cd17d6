package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func polarity(v float64) *float64 { return &v }

func conceptChunk(id uuid.UUID, polarityValue float64, importance float64, terms ...string) *model.Chunk {
	concepts := make([]model.Concept, len(terms))
	for i, term := range terms {
		concepts[i] = model.Concept{Term: term, Importance: 0.5}
	}
	importanceCopy := importance
	return &model.Chunk{
		ID:              id,
		Content:         "chunk content",
		ImportanceScore: &importanceCopy,
		Concepts:        model.ConceptList{Concepts: concepts},
		Emotional:       model.EmotionalTone{Polarity: polarity(polarityValue)},
	}
}

func TestRunContradiction(t *testing.T) {
	docID := uuid.New()

	t.Run("emits a contradiction for opposing stances with enough overlap", func(t *testing.T) {
		source := conceptChunk(uuid.New(), 0.6, 0.5, "inflation", "interest rates")
		candidate := conceptChunk(uuid.New(), -0.6, 0.5, "inflation", "interest rates")

		chunks := &fakeChunkSource{
			sourceChunks:    []*model.Chunk{source},
			candidateChunks: []*model.Chunk{candidate},
		}

		connections, err := RunContradiction(chunks, docID, model.DefaultContradictionConfig(), nil)
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.Equal(t, model.ConnectionTypeContradiction, connections[0].ConnectionType)
		assert.InDelta(t, 1.0, connections[0].Metadata["concept_overlap"], 0.0001)
		assert.Greater(t, connections[0].Strength, 0.0)
	})

	t.Run("skips a source with near-zero polarity", func(t *testing.T) {
		source := conceptChunk(uuid.New(), 0.01, 0.5, "inflation")
		candidate := conceptChunk(uuid.New(), -0.6, 0.5, "inflation")

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: []*model.Chunk{candidate}}
		connections, err := RunContradiction(chunks, docID, model.DefaultContradictionConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("skips candidates with insufficient concept overlap", func(t *testing.T) {
		source := conceptChunk(uuid.New(), 0.6, 0.5, "inflation", "gdp")
		candidate := conceptChunk(uuid.New(), -0.6, 0.5, "unrelated-topic")

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: []*model.Chunk{candidate}}
		connections, err := RunContradiction(chunks, docID, model.DefaultContradictionConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("skips same-sign polarity pairs", func(t *testing.T) {
		source := conceptChunk(uuid.New(), 0.6, 0.5, "inflation")
		candidate := conceptChunk(uuid.New(), 0.7, 0.5, "inflation")

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: []*model.Chunk{candidate}}
		connections, err := RunContradiction(chunks, docID, model.DefaultContradictionConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("truncates each source's group to max_results_per_chunk", func(t *testing.T) {
		source := conceptChunk(uuid.New(), 0.6, 0.5, "inflation")
		var candidates []*model.Chunk
		for i := 0; i < 3; i++ {
			candidates = append(candidates, conceptChunk(uuid.New(), -0.6, 0.5, "inflation"))
		}

		cfg := model.DefaultContradictionConfig()
		cfg.MaxResultsPerChunk = 2
		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}, candidateChunks: candidates}
		connections, err := RunContradiction(chunks, docID, cfg, nil)
		require.NoError(t, err)
		assert.Len(t, connections, 2)
	})
}

func TestClip01(t *testing.T) {
	assert.Equal(t, 0.0, clip01(-1))
	assert.Equal(t, 1.0, clip01(2))
	assert.Equal(t, 0.5, clip01(0.5))
}
