package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/core/llmadapter"
	"github.com/motifkb/connectengine/database"
	"github.com/motifkb/connectengine/model"
)

// bridgeContentLen is the per-chunk content excerpt length the batch prompt
// includes (§4.6 step 5: "first ~200 chars of s.content").
const bridgeContentLen = 200

// RunBridge implements E-BRI (§4.6): an importance-gated, LLM-batched
// cross-domain analogy/causation/argument detector.
func RunBridge(ctx context.Context, chunks ChunkSource, provider llmadapter.Provider, documentID uuid.UUID, cfg model.BridgeConfig, progress ProgressFunc) ([]model.Connection, error) {
	if progress == nil {
		progress = noopProgress
	}

	sources, err := fetchBridgeSources(chunks, documentID, cfg)
	if err != nil {
		return nil, err
	}

	clean := filterCleanSources(sources)
	total := len(clean)
	if total == 0 {
		return nil, nil
	}

	var all []model.Connection
	aiCalls := 0

	for sourceIdx, s := range clean {
		if ctxDone(ctx) {
			break
		}

		candidatePredicates := database.CandidatePredicates{
			CrossDocumentOf:     &s.DocumentID,
			ImportanceGTE:       &cfg.MinImportance,
			RequireDomain:       true,
			DifferentDomainThan: domainPtr(s.PrimaryDomain()),
			InDocuments:         cfg.TargetDocumentIDs,
			Limit:               cfg.MaxCandidatesPerSource,
		}
		candidates, err := chunks.FetchCandidateChunks(candidatePredicates)
		if err != nil {
			return nil, fmt.Errorf("bridge: fetch candidate chunks for %s: %w", s.ID, err)
		}
		if len(candidates) == 0 {
			progress((sourceIdx+1)*100/total, fmt.Sprintf("thematic_bridge: source %d/%d, no cross-domain candidates", sourceIdx+1, total))
			continue
		}

		batches := batchChunks(candidates, cfg.BatchSize)
		prompts := make([]string, len(batches))
		for i, batch := range batches {
			prompts[i] = buildBridgePrompt(s, batch, cfg.MinStrength)
		}

		results := llmadapter.GenerateBatch(ctx, provider, prompts, llmadapter.DefaultBatchConcurrency)
		aiCalls += len(prompts)

		for batchIdx, result := range results {
			if result.Err != nil {
				slog.Warn("bridge: batch failed, skipping",
					"source_chunk_id", s.ID, "batch_index", batchIdx, "error", result.Err,
					"excerpt", llmadapter.Excerpt(result.Raw))
				continue
			}
			all = append(all, bridgesFromBatch(s, batches[batchIdx], result.Object, cfg.MinStrength)...)
		}

		progress((sourceIdx+1)*100/total, fmt.Sprintf(
			"thematic_bridge: source %d/%d, %d batches, %d AI calls so far",
			sourceIdx+1, total, len(batches), aiCalls,
		))
	}

	return all, nil
}

func fetchBridgeSources(chunks ChunkSource, documentID uuid.UUID, cfg model.BridgeConfig) ([]*model.Chunk, error) {
	if cfg.PerChunkMode() {
		return chunks.FetchSourceChunks(documentID, database.SourceChunkOpts{
			ChunkIDs:       cfg.SourceChunkIDs,
			CurrentOrBatch: cfg.CurrentOrBatch,
		})
	}

	importanceThreshold := cfg.MinImportance
	all, err := chunks.FetchSourceChunks(documentID, database.SourceChunkOpts{
		ImportanceThreshold: &importanceThreshold,
		RequireDomain:       true,
		CurrentOrBatch:      cfg.CurrentOrBatch,
	})
	if err != nil {
		return nil, fmt.Errorf("bridge: fetch source chunks: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Importance() != all[j].Importance() {
			return all[i].Importance() > all[j].Importance()
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	if len(all) > cfg.MaxSourceChunks {
		all = all[:cfg.MaxSourceChunks]
	}
	return all, nil
}

// filterCleanSources drops non-body and excluded-label chunks (§4.6 step 2).
func filterCleanSources(sources []*model.Chunk) []*model.Chunk {
	clean := make([]*model.Chunk, 0, len(sources))
	for _, s := range sources {
		if s.EffectiveLayer() != model.ContentLayerBody {
			continue
		}
		if s.IsExcludedLabel() {
			continue
		}
		clean = append(clean, s)
	}
	return clean
}

func batchChunks(chunks []*model.Chunk, size int) [][]*model.Chunk {
	if size <= 0 {
		size = 1
	}
	var batches [][]*model.Chunk
	for i := 0; i < len(chunks); i += size {
		end := i + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[i:end])
	}
	return batches
}

func domainPtr(domain string) *string {
	if domain == "" {
		return nil
	}
	return &domain
}

// buildBridgePrompt constructs one batch's analysis prompt (§4.6 step 5).
func buildBridgePrompt(source *model.Chunk, batch []*model.Chunk, minStrength float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SOURCE (domain: %s):\n%s\n%s\n\n", source.PrimaryDomain(), summaryOrEmpty(source), contentExcerpt(source, bridgeContentLen))
	b.WriteString("CANDIDATES:\n")
	for i, c := range batch {
		fmt.Fprintf(&b, "[%d] (domain: %s) %s\n%s\n\n", i, c.PrimaryDomain(), summaryOrEmpty(c), contentExcerpt(c, bridgeContentLen))
	}
	fmt.Fprintf(&b, `Identify cross-domain thematic bridges between the source and the candidates above: analogies, causal links, temporal relationships, shared arguments, metaphors, or contextual connections. Only report bridges with strength >= %.2f.

Return a JSON object with exactly one key, "bridges", an array of objects with:
- targetIndex: the candidate's [index] above
- bridgeType: one of "conceptual", "causal", "temporal", "argumentative", "metaphorical", "contextual"
- strength: a number in [0,1]
- explanation: a short prose explanation referencing each chunk by its summary
- bridgeConcepts: an array of the shared concept terms

Do not include any text outside the JSON object.`, minStrength)
	return b.String()
}

func summaryOrEmpty(c *model.Chunk) string {
	if c.Summary != nil {
		return *c.Summary
	}
	return ""
}

func bridgesFromBatch(source *model.Chunk, batch []*model.Chunk, obj map[string]interface{}, minStrength float64) []model.Connection {
	raw, ok := obj["bridges"].([]interface{})
	if !ok {
		slog.Warn("bridge: response missing bridges array", "source_chunk_id", source.ID)
		return nil
	}

	seenTargets := make(map[int]int)
	var connections []model.Connection
	for _, entry := range raw {
		bridge, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		idxFloat, ok := bridge["targetIndex"].(float64)
		if !ok {
			continue
		}
		targetIndex := int(idxFloat)
		if targetIndex < 0 || targetIndex >= len(batch) {
			continue
		}
		seenTargets[targetIndex]++
		if seenTargets[targetIndex] > 1 {
			slog.Warn("bridge: duplicate targetIndex within batch", "source_chunk_id", source.ID, "target_index", targetIndex)
		}

		strength, _ := bridge["strength"].(float64)
		if strength < minStrength {
			continue
		}

		bridgeType, _ := bridge["bridgeType"].(string)
		explanation, _ := bridge["explanation"].(string)

		var concepts []string
		if raw, ok := bridge["bridgeConcepts"].([]interface{}); ok {
			for _, c := range raw {
				if s, ok := c.(string); ok {
					concepts = append(concepts, s)
				}
			}
		}

		target := batch[targetIndex]
		metadata := model.Metadata{
			"bridge_type":            bridgeType,
			"explanation":            explanation,
			"bridge_concepts":        concepts,
			"source_domain":          source.PrimaryDomain(),
			"target_domain":          target.PrimaryDomain(),
			"target_document_title":  target.TargetDocumentTitle,
			"target_snippet":         snippet(target, snippetLen),
		}
		connections = append(connections, model.NewConnection(source.ID, target.ID, model.ConnectionTypeThematicBridge, strength, metadata))
	}
	return connections
}
