package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
	loadSql "github.com/motifkb/connectengine/sql"
)

// DocumentsDBHandlerFunctions defines the interface for the single read the
// core needs from documents: title/user_id lookup for scope joins (§3).
type DocumentsDBHandlerFunctions interface {
	SelectDocumentTitle(id uuid.UUID) (*model.Document, error)
}

// DocumentsDBHandler is read-only: documents are opaque to the core except
// as a scope predicate, and the core never creates or deletes them (§3).
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler and loads
// its SQL functions. It does not create the documents table; sql.Init
// does (sql/init.sql).
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &DocumentsDBHandler{db: db}

	if err := loadSql.LoadDocumentsSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	db.Logger.Info("initialized DocumentsDBHandler")

	return h, nil
}

// SelectDocumentTitle looks up a document's title and owning user by id,
// the join FetchCandidateChunks needs for target_document_title (§4.1).
func (h *DocumentsDBHandler) SelectDocumentTitle(id uuid.UUID) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(`SELECT * FROM select_document_title($1)`, id)
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Title); err != nil {
		return nil, helper.NewError("scan document title", err)
	}
	return doc, nil
}
