package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/core/ann"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkSource struct {
	sourceChunks    []*model.Chunk
	sourceErr       error
	candidateChunks []*model.Chunk
	candidateErr    error
	lastSourceOpts  database.SourceChunkOpts
	lastCandidate   database.CandidatePredicates
}

func (f *fakeChunkSource) FetchSourceChunks(documentID uuid.UUID, opts database.SourceChunkOpts) ([]*model.Chunk, error) {
	f.lastSourceOpts = opts
	return f.sourceChunks, f.sourceErr
}

func (f *fakeChunkSource) FetchCandidateChunks(p database.CandidatePredicates) ([]*model.Chunk, error) {
	f.lastCandidate = p
	return f.candidateChunks, f.candidateErr
}

type fakeSimilaritySearcher struct {
	chunks []*model.Chunk
}

func (f *fakeSimilaritySearcher) FetchChunksBySimilarity(database.SimilarityPredicates) ([]*model.Chunk, error) {
	return f.chunks, nil
}

func simPtr(v float64) *float64 { return &v }

func TestRunSemantic(t *testing.T) {
	sourceID := uuid.New()
	docID := uuid.New()

	t.Run("emits a connection per neighbor", func(t *testing.T) {
		source := &model.Chunk{ID: sourceID, DocumentID: docID, Embedding: []float32{1, 0}}
		neighbor := &model.Chunk{ID: uuid.New(), Content: "neighbor content", TargetDocumentTitle: "Other doc"}

		chunks := &fakeChunkSource{sourceChunks: []*model.Chunk{source}}
		searcher := ann.NewSearcher(&fakeSimilaritySearcher{chunks: []*model.Chunk{
			{ID: neighbor.ID, Content: neighbor.Content, TargetDocumentTitle: neighbor.TargetDocumentTitle, Similarity: simPtr(0.91)},
		}})

		cfg := model.DefaultSemanticConfig()
		connections, err := RunSemantic(context.Background(), chunks, searcher, docID, cfg, nil)
		require.NoError(t, err)
		require.Len(t, connections, 1)
		assert.Equal(t, sourceID, connections[0].SourceChunkID)
		assert.Equal(t, neighbor.ID, connections[0].TargetChunkID)
		assert.Equal(t, model.ConnectionTypeSemanticSimilarity, connections[0].ConnectionType)
		assert.InDelta(t, 0.91, connections[0].Strength, 0.0001)
		assert.Equal(t, "Other doc", connections[0].Metadata["target_document_title"])
	})

	t.Run("no source chunks yields no connections", func(t *testing.T) {
		chunks := &fakeChunkSource{}
		searcher := ann.NewSearcher(&fakeSimilaritySearcher{})
		connections, err := RunSemantic(context.Background(), chunks, searcher, docID, model.DefaultSemanticConfig(), nil)
		require.NoError(t, err)
		assert.Empty(t, connections)
	})

	t.Run("propagates source fetch errors", func(t *testing.T) {
		chunks := &fakeChunkSource{sourceErr: assert.AnError}
		searcher := ann.NewSearcher(&fakeSimilaritySearcher{})
		_, err := RunSemantic(context.Background(), chunks, searcher, docID, model.DefaultSemanticConfig(), nil)
		assert.Error(t, err)
	})
}
