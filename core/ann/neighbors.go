// Package ann wraps the chunk store's cosine-similarity search behind the
// composable-predicate contract the detection engines call (spec §4.2).
package ann

import (
	"github.com/google/uuid"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
)

// Predicates compose Neighbors' server-side filter, mirroring
// FetchCandidateChunks' cross-document/exclusion/scoping predicates.
type Predicates struct {
	CrossDocumentOf  *uuid.UUID
	ExcludingChunkID *uuid.UUID
	InDocuments      []uuid.UUID
}

// Neighbor pairs a chunk with its cosine similarity to the query embedding.
type Neighbor struct {
	Chunk      *model.Chunk
	Similarity float64
}

// ChunkSimilaritySearcher is the subset of ChunksDBHandler Neighbors needs.
type ChunkSimilaritySearcher interface {
	FetchChunksBySimilarity(database.SimilarityPredicates) ([]*model.Chunk, error)
}

// Searcher is C2: a cosine-similarity ANN search, predicates pushed to the
// database so at most k rows are materialized per source chunk (§4.2).
type Searcher struct {
	chunks ChunkSimilaritySearcher
}

// NewSearcher builds a Searcher over the given chunk store.
func NewSearcher(chunks ChunkSimilaritySearcher) *Searcher {
	return &Searcher{chunks: chunks}
}

// Neighbors returns the k nearest chunks to embedding with similarity at
// least threshold, sorted by descending similarity (§4.2). The database
// query already orders by ascending cosine distance and applies the
// threshold and limit, so this is a thin typed wrapper.
func (s *Searcher) Neighbors(embedding []float32, predicates Predicates, k int, threshold float64) ([]Neighbor, error) {
	chunks, err := s.chunks.FetchChunksBySimilarity(database.SimilarityPredicates{
		Embedding:        embedding,
		Threshold:        threshold,
		Limit:            k,
		CrossDocumentOf:  predicates.CrossDocumentOf,
		ExcludingChunkID: predicates.ExcludingChunkID,
		InDocuments:      predicates.InDocuments,
	})
	if err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(chunks))
	for _, c := range chunks {
		sim := 0.0
		if c.Similarity != nil {
			sim = *c.Similarity
		}
		neighbors = append(neighbors, Neighbor{Chunk: c, Similarity: sim})
	}
	return neighbors, nil
}
