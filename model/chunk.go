package model

import (
	"time"

	"github.com/google/uuid"
)

// ContentLayer classifies where in a document's rendering a chunk sits
// (§3). A null column value is treated as BODY.
type ContentLayer string

const (
	ContentLayerBody   ContentLayer = "BODY"
	ContentLayerHeader ContentLayer = "HEADER"
	ContentLayerFooter ContentLayer = "FOOTER"
)

// ContentLabel further tags non-body chunks that E-BRI excludes (§4.6).
type ContentLabel string

const (
	ContentLabelPageHeader ContentLabel = "PAGE_HEADER"
	ContentLabelPageFooter ContentLabel = "PAGE_FOOTER"
	ContentLabelFootnote   ContentLabel = "FOOTNOTE"
	ContentLabelReference  ContentLabel = "REFERENCE"
)

// Chunk is a positioned text segment of a document, enriched with the
// semantic metadata the detection engines consume (§3).
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Summary    *string   `json:"summary,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`

	ImportanceScore *float64      `json:"importance_score,omitempty"`
	Concepts        ConceptList   `json:"conceptual_metadata,omitempty"`
	Emotional       EmotionalTone `json:"emotional_metadata,omitempty"`
	Domain          DomainTag     `json:"domain_metadata,omitempty"`

	ContentLayer *ContentLayer `json:"content_layer,omitempty"`
	ContentLabel *ContentLabel `json:"content_label,omitempty"`

	IsCurrent         bool    `json:"is_current"`
	ReprocessingBatch *string `json:"reprocessing_batch,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// TargetDocumentTitle is populated by FetchCandidateChunks (§4.1: "Always
	// returns the target document title alongside each chunk").
	TargetDocumentTitle string `json:"target_document_title,omitempty"`

	// Similarity is populated by FetchChunksBySimilarity (§4.2): the cosine
	// similarity of this chunk to the query embedding. Nil outside that path.
	Similarity *float64 `json:"similarity,omitempty"`
}

// EffectiveLayer returns the chunk's content layer, defaulting to BODY when
// the column is null (§3).
func (c *Chunk) EffectiveLayer() ContentLayer {
	if c.ContentLayer == nil {
		return ContentLayerBody
	}
	return *c.ContentLayer
}

// IsExcludedLabel reports whether the chunk's content_label places it
// outside the body text E-BRI is allowed to use as a source (§4.6 step 2).
func (c *Chunk) IsExcludedLabel() bool {
	if c.ContentLabel == nil {
		return false
	}
	switch *c.ContentLabel {
	case ContentLabelPageHeader, ContentLabelPageFooter, ContentLabelFootnote, ContentLabelReference:
		return true
	default:
		return false
	}
}

// Polarity returns the chunk's emotional polarity, or 0 when absent.
func (c *Chunk) Polarity() float64 {
	if c.Emotional.Polarity == nil {
		return 0
	}
	return *c.Emotional.Polarity
}

// HasPolarity reports whether emotional_metadata.polarity is non-null.
func (c *Chunk) HasPolarity() bool {
	return c.Emotional.Polarity != nil
}

// Importance returns the chunk's importance score, or 0 when absent.
func (c *Chunk) Importance() float64 {
	if c.ImportanceScore == nil {
		return 0
	}
	return *c.ImportanceScore
}

// PrimaryDomain returns the chunk's domain tag, or "" when absent.
func (c *Chunk) PrimaryDomain() string {
	if c.Domain.PrimaryDomain == nil {
		return ""
	}
	return *c.Domain.PrimaryDomain
}

// Snippet returns the first n characters of the chunk's summary, falling
// back to content, for display caching on a Connection (§4.4 step 3).
func (c *Chunk) Snippet(n int) string {
	source := c.Content
	if c.Summary != nil && *c.Summary != "" {
		source = *c.Summary
	}
	runes := []rune(source)
	if len(runes) <= n {
		return source
	}
	return string(runes[:n])
}
