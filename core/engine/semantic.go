package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/core/ann"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
)

// SemanticFanOut is the default concurrent source-chunk fan-out for E-SEM
// (§5: "up to 3 for E-SEM").
const SemanticFanOut = 3

// snippetLen is the target-chunk excerpt length §4.4 step 3 specifies.
const snippetLen = 200

// RunSemantic implements E-SEM (§4.4): near-duplicate / near-paraphrase
// matches across documents via the ANN searcher.
func RunSemantic(ctx context.Context, chunks ChunkSource, searcher *ann.Searcher, documentID uuid.UUID, cfg model.SemanticConfig, progress ProgressFunc) ([]model.Connection, error) {
	if progress == nil {
		progress = noopProgress
	}

	sources, err := chunks.FetchSourceChunks(documentID, database.SourceChunkOpts{
		ChunkIDs:         cfg.SourceChunkIDs,
		RequireEmbedding: true,
		CurrentOrBatch:   cfg.CurrentOrBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: fetch source chunks: %w", err)
	}

	if len(sources) == 0 {
		return nil, nil
	}

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		sem         = make(chan struct{}, SemanticFanOut)
		connections []model.Connection
		done        int
	)
	total := len(sources)

	for _, s := range sources {
		if ctxDone(ctx) {
			break
		}

		wg.Add(1)
		go func(source *model.Chunk) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			found, err := matchSemanticNeighbors(source, searcher, cfg)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err == nil {
				connections = append(connections, found...)
			} else {
				slog.Warn("semantic: neighbor search failed, skipping source", "source_chunk_id", source.ID, "error", err)
			}
			progress(done*100/total, fmt.Sprintf("semantic_similarity: %d/%d source chunks", done, total))
		}(s)
	}

	wg.Wait()

	return connections, nil
}

func matchSemanticNeighbors(source *model.Chunk, searcher *ann.Searcher, cfg model.SemanticConfig) ([]model.Connection, error) {
	predicates := ann.Predicates{
		ExcludingChunkID: &source.ID,
	}
	if cfg.CrossDocumentOnly {
		predicates.CrossDocumentOf = &source.DocumentID
	}
	if len(cfg.TargetDocumentIDs) > 0 {
		predicates.InDocuments = cfg.TargetDocumentIDs
	}

	neighbors, err := searcher.Neighbors(source.Embedding, predicates, cfg.MaxResultsPerChunk, cfg.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	connections := make([]model.Connection, 0, len(neighbors))
	for _, n := range neighbors {
		metadata := model.Metadata{
			"similarity":            n.Similarity,
			"target_document_title": n.Chunk.TargetDocumentTitle,
			"target_snippet":        snippet(n.Chunk, snippetLen),
			"explanation":           fmt.Sprintf("Near-paraphrase match (cosine %.4f)", n.Similarity),
		}
		connections = append(connections, model.NewConnection(
			source.ID,
			n.Chunk.ID,
			model.ConnectionTypeSemanticSimilarity,
			n.Similarity,
			metadata,
		))
	}
	return connections, nil
}
