package model

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionType identifies which engine produced a Connection (§3).
type ConnectionType string

const (
	ConnectionTypeSemanticSimilarity  ConnectionType = "semantic_similarity"
	ConnectionTypeContradiction       ConnectionType = "contradiction_detection"
	ConnectionTypeThematicBridge      ConnectionType = "thematic_bridge"
)

// BridgeType is assigned by E-BRI's LLM call to classify the nature of a
// thematic bridge (GLOSSARY).
type BridgeType string

const (
	BridgeTypeConceptual   BridgeType = "conceptual"
	BridgeTypeCausal       BridgeType = "causal"
	BridgeTypeTemporal     BridgeType = "temporal"
	BridgeTypeArgumentative BridgeType = "argumentative"
	BridgeTypeMetaphorical BridgeType = "metaphorical"
	BridgeTypeContextual   BridgeType = "contextual"
)

// Connection is a typed, scored, directed edge from a source chunk to a
// target chunk (§3). (source_chunk_id, target_chunk_id, connection_type) is
// unique; a second detection overwrites.
type Connection struct {
	ID              uuid.UUID      `json:"id"`
	SourceChunkID   uuid.UUID      `json:"source_chunk_id"`
	TargetChunkID   uuid.UUID      `json:"target_chunk_id"`
	ConnectionType  ConnectionType `json:"connection_type"`
	Strength        float64        `json:"strength"`
	AutoDetected    bool           `json:"auto_detected"`
	DiscoveredAt    time.Time      `json:"discovered_at"`
	Metadata        Metadata       `json:"metadata"`
}

// NewConnection builds a Connection with auto_detected always true, as
// every connection the core produces is machine-detected (§3).
func NewConnection(source, target uuid.UUID, connType ConnectionType, strength float64, metadata Metadata) Connection {
	if metadata == nil {
		metadata = Metadata{}
	}
	return Connection{
		SourceChunkID:  source,
		TargetChunkID:  target,
		ConnectionType: connType,
		Strength:       strength,
		AutoDetected:   true,
		Metadata:       metadata,
	}
}

// Key identifies the upsert triple a Connection is deduplicated on (§4.7
// "Deduplication").
type ConnectionKey struct {
	SourceChunkID  uuid.UUID
	TargetChunkID  uuid.UUID
	ConnectionType ConnectionType
}

// Key returns the connection's dedup triple.
func (c Connection) Key() ConnectionKey {
	return ConnectionKey{
		SourceChunkID:  c.SourceChunkID,
		TargetChunkID:  c.TargetChunkID,
		ConnectionType: c.ConnectionType,
	}
}

// DeduplicateConnections groups by (source, target, type), keeping the
// highest-strength record and its metadata verbatim (§4.7). Iteration order
// over the input is preserved for the first-seen key so ties are stable.
func DeduplicateConnections(connections []Connection) []Connection {
	best := make(map[ConnectionKey]Connection, len(connections))
	order := make([]ConnectionKey, 0, len(connections))

	for _, c := range connections {
		key := c.Key()
		existing, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = c
			continue
		}
		if c.Strength > existing.Strength {
			best[key] = c
		}
	}

	deduped := make([]Connection, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, best[key])
	}
	return deduped
}
