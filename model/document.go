package model

import (
	"time"

	"github.com/google/uuid"
)

// Document is owned by a user and pre-exists the core; the core only reads
// it as a scope predicate (document_id, user_id) and for title display
// caching (§3: "the core never creates or deletes documents").
type Document struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title"`
	SourceKind string    `json:"source_kind"`
	CreatedAt  time.Time `json:"created_at"`
}
