package model

import "github.com/google/uuid"

// CurrentOrBatch selects the chunk population an engine reads: either the
// live is_current=true set, or a specific reprocessing batch (§4.1
// "current_or_batch").
type CurrentOrBatch struct {
	ReprocessingBatch string // empty means is_current=true
}

// IsCurrent reports whether this selector targets the live chunk set.
func (c CurrentOrBatch) IsCurrent() bool {
	return c.ReprocessingBatch == ""
}

// SemanticConfig configures E-SEM (§4.4).
type SemanticConfig struct {
	SimilarityThreshold float64         `json:"similarity_threshold"`
	MaxResultsPerChunk  int             `json:"max_results_per_chunk"`
	CrossDocumentOnly   bool            `json:"cross_document_only"`
	SourceChunkIDs      []uuid.UUID     `json:"source_chunk_ids,omitempty"`
	TargetDocumentIDs   []uuid.UUID     `json:"target_document_ids,omitempty"`
	CurrentOrBatch      CurrentOrBatch  `json:"current_or_batch"`
}

// DefaultSemanticConfig returns E-SEM's defaults (§4.4).
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		SimilarityThreshold: 0.7,
		MaxResultsPerChunk:  50,
		CrossDocumentOnly:   true,
	}
}

// ContradictionConfig configures E-CON (§4.5).
type ContradictionConfig struct {
	MinConceptOverlap       float64        `json:"min_concept_overlap"`
	PolarityThreshold       float64        `json:"polarity_threshold"`
	MaxResultsPerChunk      int            `json:"max_results_per_chunk"`
	CrossDocumentOnly       bool           `json:"cross_document_only"`
	SourceChunkIDs          []uuid.UUID    `json:"source_chunk_ids,omitempty"`
	TargetDocumentIDs       []uuid.UUID    `json:"target_document_ids,omitempty"`
	CurrentOrBatch          CurrentOrBatch `json:"current_or_batch"`
	EnableNegationDetection bool           `json:"enable_negation_detection"`
}

// DefaultContradictionConfig returns E-CON's defaults (§4.5, §12).
func DefaultContradictionConfig() ContradictionConfig {
	return ContradictionConfig{
		MinConceptOverlap:       0.5,
		PolarityThreshold:       0.3,
		MaxResultsPerChunk:      20,
		CrossDocumentOnly:       true,
		EnableNegationDetection: false,
	}
}

// BridgeConfig configures E-BRI (§4.6).
type BridgeConfig struct {
	MinImportance          float64        `json:"min_importance"`
	MinStrength            float64        `json:"min_strength"`
	MaxSourceChunks        int            `json:"max_source_chunks"`
	MaxCandidatesPerSource int            `json:"max_candidates_per_source"`
	BatchSize              int            `json:"batch_size"`
	SourceChunkIDs         []uuid.UUID    `json:"source_chunk_ids,omitempty"`
	TargetDocumentIDs      []uuid.UUID    `json:"target_document_ids,omitempty"`
	CurrentOrBatch         CurrentOrBatch `json:"current_or_batch"`
}

// DefaultBridgeConfig returns E-BRI's defaults (§4.6).
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		MinImportance:          0.6,
		MinStrength:            0.6,
		MaxSourceChunks:        50,
		MaxCandidatesPerSource: 10,
		BatchSize:              5,
	}
}

// PerChunkMode reports whether source_chunk_ids was given, which disables
// E-BRI's importance pre-filter (§9 "Per-chunk vs per-document detection").
func (b BridgeConfig) PerChunkMode() bool {
	return len(b.SourceChunkIDs) > 0
}

// OrchestratorConfig is the input to ProcessDocument (§4.7).
type OrchestratorConfig struct {
	EnabledEngines    []ConnectionType    `json:"enabled_engines"`
	Semantic          SemanticConfig      `json:"semantic"`
	Contradiction     ContradictionConfig `json:"contradiction"`
	Bridge            BridgeConfig        `json:"bridge"`
	SourceChunkIDs    []uuid.UUID         `json:"source_chunk_ids,omitempty"`
	TargetDocumentIDs []uuid.UUID         `json:"target_document_ids,omitempty"`
}

// DefaultOrchestratorConfig enables all three engines with their defaults.
// It sets no source_chunk_ids/target_document_ids; Propagate copies those
// onto the sub-configs once they are set.
func DefaultOrchestratorConfig() OrchestratorConfig {
	cfg := OrchestratorConfig{
		EnabledEngines: []ConnectionType{
			ConnectionTypeSemanticSimilarity,
			ConnectionTypeContradiction,
			ConnectionTypeThematicBridge,
		},
		Semantic:      DefaultSemanticConfig(),
		Contradiction: DefaultContradictionConfig(),
		Bridge:        DefaultBridgeConfig(),
	}
	return cfg
}

// VectorIndexType names a supported pgvector ANN index kind (§12 "vector
// index management").
type VectorIndexType string

const (
	VectorIndexHNSW    VectorIndexType = "hnsw"
	VectorIndexIVFFlat VectorIndexType = "ivfflat"
)

// IndexRebuildConfig parameterizes a chunk-embedding index rebuild: the
// operational knob over C1/C2 from §12's "vector index management"
// supplement.
type IndexRebuildConfig struct {
	Type           VectorIndexType `json:"type"`
	M              int             `json:"m,omitempty"`
	EfConstruction int             `json:"ef_construction,omitempty"`
	Lists          int             `json:"lists,omitempty"`
}

// DefaultIndexRebuildConfig fills in the construction parameters pgvector
// itself defaults to for the given index type.
func DefaultIndexRebuildConfig(indexType VectorIndexType) IndexRebuildConfig {
	switch indexType {
	case VectorIndexIVFFlat:
		return IndexRebuildConfig{Type: VectorIndexIVFFlat, Lists: 100}
	default:
		return IndexRebuildConfig{Type: VectorIndexHNSW, M: 16, EfConstruction: 64}
	}
}

// EngineEnabled reports whether connType is in EnabledEngines.
func (o OrchestratorConfig) EngineEnabled(connType ConnectionType) bool {
	for _, t := range o.EnabledEngines {
		if t == connType {
			return true
		}
	}
	return false
}

// Propagate copies SourceChunkIDs and TargetDocumentIDs onto every
// per-engine sub-config, as §4.7 requires.
func (o *OrchestratorConfig) Propagate() {
	if len(o.SourceChunkIDs) > 0 {
		o.Semantic.SourceChunkIDs = o.SourceChunkIDs
		o.Contradiction.SourceChunkIDs = o.SourceChunkIDs
		o.Bridge.SourceChunkIDs = o.SourceChunkIDs
	}
	if len(o.TargetDocumentIDs) > 0 {
		o.Semantic.TargetDocumentIDs = o.TargetDocumentIDs
		o.Contradiction.TargetDocumentIDs = o.TargetDocumentIDs
		o.Bridge.TargetDocumentIDs = o.TargetDocumentIDs
	}
}
