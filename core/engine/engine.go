// Package engine holds the three detection engines the orchestrator runs
// per document: semantic similarity (E-SEM), contradiction (E-CON), and
// thematic bridge (E-BRI).
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
)

// ProgressFunc reports an engine's own 0-100 progress and a human-readable
// status message. The orchestrator maps this into its overall band (§4.7
// "forwards engine-internal progress into its band").
type ProgressFunc func(percent int, message string)

// noopProgress discards progress reports, for callers that don't track them.
func noopProgress(int, string) {}

// ChunkSource is the subset of the chunk store every engine reads through
// (§4.1, §4.4-§4.6).
type ChunkSource interface {
	FetchSourceChunks(documentID uuid.UUID, opts database.SourceChunkOpts) ([]*model.Chunk, error)
	FetchCandidateChunks(predicates database.CandidatePredicates) ([]*model.Chunk, error)
}

// ctxDone reports whether ctx has been cancelled. E-SEM and E-BRI check it
// before starting each source chunk's I/O; E-CON and the negation path take
// no context and do not check it.
func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// snippet returns the target_snippet excerpt of c: the first n characters
// of its summary, or of its content when it has no summary.
func snippet(c *model.Chunk, n int) string {
	return c.Snippet(n)
}

// contentExcerpt returns the first n characters of c's content.
func contentExcerpt(c *model.Chunk, n int) string {
	runes := []rune(c.Content)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
