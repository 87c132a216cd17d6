package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
	loadSql "github.com/motifkb/connectengine/sql"
)

// SourceChunkOpts is the opts argument to FetchSourceChunks (§4.1).
type SourceChunkOpts struct {
	ChunkIDs                  []uuid.UUID
	ImportanceThreshold       *float64
	RequireConceptsAndPolarity bool
	RequireDomain             bool
	RequireEmbedding          bool
	Limit                     int
	CurrentOrBatch            model.CurrentOrBatch
}

// CandidatePredicates composes FetchCandidateChunks's predicates (§4.1).
type CandidatePredicates struct {
	CrossDocumentOf     *uuid.UUID
	ExcludingChunkID     *uuid.UUID
	ImportanceGTE        *float64
	RequireConcepts      bool
	RequirePolarity      bool
	RequireDomain        bool
	RequireEmbedding     bool
	DifferentDomainThan  *string
	InDocuments          []uuid.UUID
	CurrentOrBatch       model.CurrentOrBatch
	Limit                int
}

// SimilarityPredicates composes select_chunks_by_similarity's predicates
// for C2's Neighbors() (§4.2).
type SimilarityPredicates struct {
	Embedding       []float32
	Threshold       float64
	Limit           int
	CrossDocumentOf *uuid.UUID
	ExcludingChunkID *uuid.UUID
	InDocuments     []uuid.UUID
}

// ChunksDBHandlerFunctions defines the interface for chunk read operations
// the detection engines depend on.
type ChunksDBHandlerFunctions interface {
	FetchSourceChunks(documentID uuid.UUID, opts SourceChunkOpts) ([]*model.Chunk, error)
	FetchCandidateChunks(predicates CandidatePredicates) ([]*model.Chunk, error)
	FetchChunksBySimilarity(predicates SimilarityPredicates) ([]*model.Chunk, error)
}

// ChunksDBHandler is the read-only chunk store adapter the detection
// engines call through (§3, §4.1). The engine never writes chunks; that
// table is owned by the ingestion pipeline this module does not contain.
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler. It loads the
// chunk-related SQL functions and ensures the chunks table exists at the
// given embedding dimension.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &ChunksDBHandler{db: db}

	if err := loadSql.LoadChunksSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	if err := h.CreateTable(embeddingDim); err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("initialized ChunksDBHandler")

	return h, nil
}

// CreateTable creates the chunks table at the given embedding dimension if
// it does not already exist.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("checked/created table chunks")

	return nil
}

// FetchSourceChunks implements the chunk store's FetchSourceChunks (§4.1):
// the ordered set of chunks a per-document detection run reads from.
func (h *ChunksDBHandler) FetchSourceChunks(documentID uuid.UUID, opts SourceChunkOpts) ([]*model.Chunk, error) {
	var chunkIDsParam interface{}
	if len(opts.ChunkIDs) > 0 {
		chunkIDsParam = pq.Array(opts.ChunkIDs)
	}

	var reprocessingBatchParam interface{}
	if !opts.CurrentOrBatch.IsCurrent() {
		reprocessingBatchParam = opts.CurrentOrBatch.ReprocessingBatch
	}

	var limitParam interface{}
	if opts.Limit > 0 {
		limitParam = opts.Limit
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_source_chunks($1, $2, $3, $4, $5, $6, $7, $8)`,
		documentID,
		chunkIDsParam,
		opts.ImportanceThreshold,
		opts.RequireConceptsAndPolarity,
		opts.RequireDomain,
		opts.RequireEmbedding,
		reprocessingBatchParam,
		limitParam,
	)
	if err != nil {
		return nil, helper.NewError("query source chunks", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embeddingVec *pgvector.Vector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Summary,
			&embeddingVec,
			&chunk.ImportanceScore,
			&chunk.Concepts,
			&chunk.Emotional,
			&chunk.Domain,
			&chunk.ContentLayer,
			&chunk.ContentLabel,
			&chunk.IsCurrent,
			&chunk.ReprocessingBatch,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan source chunk", err)
		}
		if embeddingVec != nil {
			chunk.Embedding = embeddingVec.Slice()
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// FetchCandidateChunks implements the chunk store's FetchCandidateChunks
// (§4.1): a composable candidate set, always carrying the target document
// title alongside each chunk.
func (h *ChunksDBHandler) FetchCandidateChunks(p CandidatePredicates) ([]*model.Chunk, error) {
	var inDocumentsParam interface{}
	if len(p.InDocuments) > 0 {
		inDocumentsParam = pq.Array(p.InDocuments)
	}

	var reprocessingBatchParam interface{}
	if !p.CurrentOrBatch.IsCurrent() {
		reprocessingBatchParam = p.CurrentOrBatch.ReprocessingBatch
	}

	var limitParam interface{}
	if p.Limit > 0 {
		limitParam = p.Limit
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_candidate_chunks($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.CrossDocumentOf,
		p.ExcludingChunkID,
		p.ImportanceGTE,
		p.RequireConcepts,
		p.RequirePolarity,
		p.RequireDomain,
		p.RequireEmbedding,
		p.DifferentDomainThan,
		inDocumentsParam,
		reprocessingBatchParam,
		limitParam,
	)
	if err != nil {
		return nil, helper.NewError("query candidate chunks", err)
	}
	defer rows.Close()

	return scanCandidateRows(rows)
}

// FetchChunksBySimilarity backs C2's Neighbors(): a cosine-similarity ANN
// search over current, embedded chunks with the same composable predicates
// as FetchCandidateChunks (§4.2).
func (h *ChunksDBHandler) FetchChunksBySimilarity(p SimilarityPredicates) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(p.Embedding)

	var inDocumentsParam interface{}
	if len(p.InDocuments) > 0 {
		inDocumentsParam = pq.Array(p.InDocuments)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4, $5, $6)`,
		embeddingVector,
		p.Threshold,
		p.Limit,
		p.CrossDocumentOf,
		p.ExcludingChunkID,
		inDocumentsParam,
	)
	if err != nil {
		return nil, helper.NewError("query chunks by similarity", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embeddingVec *pgvector.Vector
		var similarity float64
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Summary,
			&embeddingVec,
			&chunk.ImportanceScore,
			&chunk.Concepts,
			&chunk.Emotional,
			&chunk.Domain,
			&chunk.ContentLayer,
			&chunk.ContentLabel,
			&chunk.IsCurrent,
			&chunk.ReprocessingBatch,
			&chunk.CreatedAt,
			&chunk.TargetDocumentTitle,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan similarity chunk", err)
		}
		if embeddingVec != nil {
			chunk.Embedding = embeddingVec.Slice()
		}
		chunk.Similarity = &similarity
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

func scanCandidateRows(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embeddingVec *pgvector.Vector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.Summary,
			&embeddingVec,
			&chunk.ImportanceScore,
			&chunk.Concepts,
			&chunk.Emotional,
			&chunk.Domain,
			&chunk.ContentLayer,
			&chunk.ContentLabel,
			&chunk.IsCurrent,
			&chunk.ReprocessingBatch,
			&chunk.CreatedAt,
			&chunk.TargetDocumentTitle,
		)
		if err != nil {
			return nil, helper.NewError("scan candidate chunk", err)
		}
		if embeddingVec != nil {
			chunk.Embedding = embeddingVec.Slice()
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}
	return chunks, nil
}
