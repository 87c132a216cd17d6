package ann

import (
	"testing"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	chunks []*model.Chunk
	err    error
	gotReq database.SimilarityPredicates
}

func (f *fakeSearcher) FetchChunksBySimilarity(p database.SimilarityPredicates) ([]*model.Chunk, error) {
	f.gotReq = p
	return f.chunks, f.err
}

func simPtr(v float64) *float64 { return &v }

func TestNeighbors(t *testing.T) {
	t.Run("wraps chunks with their similarity", func(t *testing.T) {
		fake := &fakeSearcher{chunks: []*model.Chunk{
			{ID: uuid.New(), Similarity: simPtr(0.92)},
			{ID: uuid.New(), Similarity: simPtr(0.81)},
		}}
		s := NewSearcher(fake)

		neighbors, err := s.Neighbors([]float32{1, 0}, Predicates{}, 5, 0.7)
		assert.NoError(t, err)
		require.Len(t, neighbors, 2)
		assert.Equal(t, 0.92, neighbors[0].Similarity)
		assert.Equal(t, 0.81, neighbors[1].Similarity)
	})

	t.Run("defaults similarity to zero when unset", func(t *testing.T) {
		fake := &fakeSearcher{chunks: []*model.Chunk{{ID: uuid.New()}}}
		s := NewSearcher(fake)

		neighbors, err := s.Neighbors([]float32{1, 0}, Predicates{}, 5, 0.0)
		require.NoError(t, err)
		require.Len(t, neighbors, 1)
		assert.Equal(t, 0.0, neighbors[0].Similarity)
	})

	t.Run("passes predicates through to the chunk store", func(t *testing.T) {
		fake := &fakeSearcher{}
		s := NewSearcher(fake)
		docID := uuid.New()
		excludeID := uuid.New()

		_, err := s.Neighbors([]float32{1, 0}, Predicates{CrossDocumentOf: &docID, ExcludingChunkID: &excludeID}, 10, 0.7)
		require.NoError(t, err)
		assert.Equal(t, &docID, fake.gotReq.CrossDocumentOf)
		assert.Equal(t, &excludeID, fake.gotReq.ExcludingChunkID)
		assert.Equal(t, 10, fake.gotReq.Limit)
		assert.Equal(t, 0.7, fake.gotReq.Threshold)
	})

	t.Run("propagates search errors", func(t *testing.T) {
		fake := &fakeSearcher{err: assert.AnError}
		s := NewSearcher(fake)

		_, err := s.Neighbors([]float32{1, 0}, Predicates{}, 5, 0.7)
		assert.Error(t, err)
	})
}
