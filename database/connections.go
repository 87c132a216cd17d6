package database

import (
	"fmt"

	"github.com/motifkb/connectengine/helper"
	"github.com/motifkb/connectengine/model"
	loadSql "github.com/motifkb/connectengine/sql"
)

// ConnectionsDBHandlerFunctions defines the interface for the connections
// store's single write path (§3, §4.1).
type ConnectionsDBHandlerFunctions interface {
	SaveConnections(connections []model.Connection) error
}

// ConnectionsDBHandler is the connections store adapter: SaveConnections is
// the orchestrator's only write, one transaction per call (§4.7 "Database
// connection pool").
type ConnectionsDBHandler struct {
	db *helper.Database
}

// NewConnectionsDBHandler creates a new connections database handler and
// loads its SQL functions. The chunks table must already exist: the
// chunk_connections table references it by foreign key.
func NewConnectionsDBHandler(db *helper.Database, force bool) (*ConnectionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	h := &ConnectionsDBHandler{db: db}

	if err := loadSql.LoadConnectionsSql(h.db.Instance, force); err != nil {
		return nil, helper.NewError("load connections sql", err)
	}

	db.Logger.Info("initialized ConnectionsDBHandler")

	return h, nil
}

// SaveConnections persists a batch of connections with upsert-by-triple
// semantics, rolling the whole batch back on any row error (§3, §4.1). This
// is transient I/O: the orchestrator retries the call once with a short
// backoff before surfacing a failure (§7 "for SaveConnections, surface").
func (h *ConnectionsDBHandler) SaveConnections(connections []model.Connection) error {
	if len(connections) == 0 {
		return nil
	}

	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}

	for i := range connections {
		c := &connections[i]
		row := tx.QueryRow(
			`SELECT * FROM upsert_connection($1, $2, $3, $4, $5)`,
			c.SourceChunkID,
			c.TargetChunkID,
			c.ConnectionType,
			c.Strength,
			c.Metadata,
		)
		if err := row.Scan(
			&c.ID,
			&c.SourceChunkID,
			&c.TargetChunkID,
			&c.ConnectionType,
			&c.Strength,
			&c.AutoDetected,
			&c.DiscoveredAt,
			&c.Metadata,
		); err != nil {
			_ = tx.Rollback()
			return helper.NewError("upsert connection", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit transaction", err)
	}

	h.db.Logger.Info("saved connections", "count", len(connections))

	return nil
}
