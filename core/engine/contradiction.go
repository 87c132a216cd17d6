package engine

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
)

// minPolarityMagnitude is the "has an opinion" floor below which a source
// chunk is skipped entirely (§4.5 step 2).
const minPolarityMagnitude = 0.1

// sharedConceptsLimit bounds the shared_concepts metadata list (§4.5 step 6).
const sharedConceptsLimit = 10

// explanationConceptsLimit bounds how many shared concepts the explanation
// string names (§4.5 step 6: "Discussing {top-3 shared}...").
const explanationConceptsLimit = 3

// RunContradiction implements E-CON (§4.5): metadata-only opposing-stance
// detection over concept/polarity columns, no LLM involved.
func RunContradiction(chunks ChunkSource, documentID uuid.UUID, cfg model.ContradictionConfig, progress ProgressFunc) ([]model.Connection, error) {
	if progress == nil {
		progress = noopProgress
	}

	sources, err := chunks.FetchSourceChunks(documentID, database.SourceChunkOpts{
		ChunkIDs:                   cfg.SourceChunkIDs,
		RequireConceptsAndPolarity: true,
		CurrentOrBatch:             cfg.CurrentOrBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("contradiction: fetch source chunks: %w", err)
	}

	total := len(sources)
	var all []model.Connection

	for i, s := range sources {
		progress((i+1)*100/max(total, 1), fmt.Sprintf("contradiction_detection: %d/%d source chunks", i+1, total))

		if absFloat(s.Polarity()) < minPolarityMagnitude {
			continue
		}
		sourceTerms := s.Concepts.Terms()
		if len(sourceTerms) == 0 {
			continue
		}

		candidatePredicates := database.CandidatePredicates{
			ExcludingChunkID: &s.ID,
			RequireConcepts:  true,
			RequirePolarity:  true,
			InDocuments:      cfg.TargetDocumentIDs,
			CurrentOrBatch:   cfg.CurrentOrBatch,
		}
		if cfg.CrossDocumentOnly {
			candidatePredicates.CrossDocumentOf = &s.DocumentID
		}

		candidates, err := chunks.FetchCandidateChunks(candidatePredicates)
		if err != nil {
			return nil, fmt.Errorf("contradiction: fetch candidate chunks for %s: %w", s.ID, err)
		}

		group := make([]model.Connection, 0, len(candidates))
		for _, c := range candidates {
			conn, ok := contradictionCandidate(s, c, sourceTerms, cfg)
			if ok {
				group = append(group, conn)
			}
		}

		sort.SliceStable(group, func(a, b int) bool {
			return group[a].Strength > group[b].Strength
		})
		if len(group) > cfg.MaxResultsPerChunk {
			group = group[:cfg.MaxResultsPerChunk]
		}
		all = append(all, group...)
	}

	return all, nil
}

func contradictionCandidate(s, c *model.Chunk, sourceTerms map[string]struct{}, cfg model.ContradictionConfig) (model.Connection, bool) {
	candidateTerms := c.Concepts.Terms()
	overlap := model.JaccardOverlap(sourceTerms, candidateTerms)
	if overlap < cfg.MinConceptOverlap {
		return model.Connection{}, false
	}

	sourcePolarity, candidatePolarity := s.Polarity(), c.Polarity()
	if sourcePolarity*candidatePolarity >= 0 {
		return model.Connection{}, false
	}

	polarityDistance := absFloat(sourcePolarity - candidatePolarity)
	if polarityDistance < cfg.PolarityThreshold {
		return model.Connection{}, false
	}

	strength := clip01(0.4*overlap + 0.4*(polarityDistance/2) + 0.2*meanImportance(s, c))
	shared := sharedTerms(sourceTerms, candidateTerms)

	metadata := model.Metadata{
		"concept_overlap":       overlap,
		"polarity_distance":     polarityDistance,
		"source_polarity":       sourcePolarity,
		"target_polarity":       candidatePolarity,
		"shared_concepts":       limitStrings(shared, sharedConceptsLimit),
		"target_document_title": c.TargetDocumentTitle,
		"target_snippet":        snippet(c, snippetLen),
		"explanation": fmt.Sprintf(
			"Discussing %s with opposing stances (polarity difference %.2f)",
			joinTop(shared, explanationConceptsLimit),
			polarityDistance,
		),
	}

	return model.NewConnection(s.ID, c.ID, model.ConnectionTypeContradiction, strength, metadata), true
}

func sharedTerms(a, b map[string]struct{}) []string {
	shared := make([]string, 0, len(a))
	for term := range a {
		if _, ok := b[term]; ok {
			shared = append(shared, term)
		}
	}
	sort.Strings(shared)
	return shared
}

func limitStrings(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}

func joinTop(values []string, n int) string {
	top := limitStrings(values, n)
	if len(top) == 0 {
		return "shared concepts"
	}
	out := top[0]
	for _, v := range top[1:] {
		out += ", " + v
	}
	return out
}

func meanImportance(s, c *model.Chunk) float64 {
	return (s.Importance() + c.Importance()) / 2
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
