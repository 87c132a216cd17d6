package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
)

// negationCues are the phrases checked near a shared concept term to flag a
// direct negation of it (regex-free word-list match, in the teacher's
// heuristic-validator style).
var negationCues = []string{
	"not ", "never ", "no longer ", "cannot ", "can't ",
	"doesn't ", "does not ", "isn't ", "is not ", "wasn't ", "was not ",
	"won't ", "fails to ", "lacks ", "without ",
}

// negationWindow bounds how many characters before and after a term
// occurrence are searched for a negation cue.
const negationWindow = 60

// negationStrength is the fixed strength assigned when a direct negation
// fires; there is no LLM confidence signal backing this path.
const negationStrength = 0.7

// RunNegation implements the supplemented direct-negation contradiction
// signal: a regex-free scan of raw chunk content for a shared concept term
// negated in one chunk but not the other. Disabled unless
// EnableNegationDetection is set; skips any (source, target) pair already
// present in emitted, since the metadata path takes priority.
func RunNegation(chunks ChunkSource, documentID uuid.UUID, cfg model.ContradictionConfig, emitted map[model.ConnectionKey]bool, progress ProgressFunc) ([]model.Connection, error) {
	if !cfg.EnableNegationDetection {
		return nil, nil
	}
	if progress == nil {
		progress = noopProgress
	}

	sources, err := chunks.FetchSourceChunks(documentID, database.SourceChunkOpts{
		ChunkIDs:                   cfg.SourceChunkIDs,
		RequireConceptsAndPolarity: true,
		CurrentOrBatch:             cfg.CurrentOrBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("negation: fetch source chunks: %w", err)
	}

	var all []model.Connection
	for _, s := range sources {
		sourceTerms := s.Concepts.Terms()
		if len(sourceTerms) == 0 {
			continue
		}

		candidatePredicates := database.CandidatePredicates{
			ExcludingChunkID: &s.ID,
			RequireConcepts:  true,
			InDocuments:      cfg.TargetDocumentIDs,
			CurrentOrBatch:   cfg.CurrentOrBatch,
		}
		if cfg.CrossDocumentOnly {
			candidatePredicates.CrossDocumentOf = &s.DocumentID
		}

		candidates, err := chunks.FetchCandidateChunks(candidatePredicates)
		if err != nil {
			return nil, fmt.Errorf("negation: fetch candidate chunks for %s: %w", s.ID, err)
		}

		for _, c := range candidates {
			key := model.Connection{SourceChunkID: s.ID, TargetChunkID: c.ID, ConnectionType: model.ConnectionTypeContradiction}.Key()
			if emitted[key] {
				continue
			}

			term, ok := directNegation(sourceTerms, s.Content, c.Content)
			if !ok {
				continue
			}

			metadata := model.Metadata{
				"contradictionType":     "direct_negation",
				"negated_concept":       term,
				"target_document_title": c.TargetDocumentTitle,
				"target_snippet":        snippet(c, snippetLen),
				"explanation":           fmt.Sprintf("One chunk negates %q stated in the other", term),
			}
			all = append(all, model.NewConnection(s.ID, c.ID, model.ConnectionTypeContradiction, negationStrength, metadata))
		}
	}

	return all, nil
}

// directNegation reports whether exactly one of s/c negates a shared
// concept term near its occurrence, returning that term.
func directNegation(sharedTermsSource map[string]struct{}, sourceContent, candidateContent string) (string, bool) {
	lowerSource := strings.ToLower(sourceContent)
	lowerCandidate := strings.ToLower(candidateContent)

	for term := range sharedTermsSource {
		if !strings.Contains(lowerCandidate, term) {
			continue
		}
		sourceNegated := negatedNear(lowerSource, term)
		candidateNegated := negatedNear(lowerCandidate, term)
		if sourceNegated != candidateNegated {
			return term, true
		}
	}
	return "", false
}

func negatedNear(content, term string) bool {
	idx := strings.Index(content, term)
	if idx < 0 {
		return false
	}
	start := idx - negationWindow
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + negationWindow
	if end > len(content) {
		end = len(content)
	}
	window := content[start:end]
	for _, cue := range negationCues {
		if strings.Contains(window, cue) {
			return true
		}
	}
	return false
}
