package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/motifkb/connectengine/helper"
)

// Metadata is a free-form JSONB bag, used for the engine-specific
// Connection.Metadata record (§3, §4.4-4.6).
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage.
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval.
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes.
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or Metadata to Metadata.
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = Metadata(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}

	return json.Unmarshal(b, m)
}

// Concept is one entry of a chunk's conceptual_metadata.concepts set (§3).
type Concept struct {
	Term       string  `json:"term"`
	Importance float64 `json:"importance"`
}

// ConceptList is the typed sub-record backing chunks.conceptual_metadata.
// Parsed once at load time; a chunk with no concepts is stored as an empty
// "concepts" array and scans back to a nil Concepts slice rather than
// failing the scan (§9 "Dynamic metadata shapes").
type ConceptList struct {
	Concepts []Concept `json:"concepts"`
}

// Value implements driver.Valuer.
func (c ConceptList) Value() (driver.Value, error) {
	if c.Concepts == nil {
		return []byte(`{"concepts":[]}`), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner. Entries with a mis-typed term or importance
// are dropped rather than aborting the whole scan.
func (c *ConceptList) Scan(value interface{}) error {
	c.Concepts = nil
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("conceptual_metadata: type assertion to []byte failed"))
	}
	if len(b) == 0 {
		return nil
	}

	var raw struct {
		Concepts []json.RawMessage `json:"concepts"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return helper.NewError("unmarshal conceptual_metadata", err)
	}

	for _, entry := range raw.Concepts {
		var concept Concept
		if err := json.Unmarshal(entry, &concept); err != nil {
			// Mis-shaped entry: drop it, keep the rest (§9).
			continue
		}
		if concept.Term == "" {
			continue
		}
		c.Concepts = append(c.Concepts, concept)
	}

	return nil
}

// Terms returns the lowercased, whitespace-trimmed term set, suitable for
// Jaccard comparison (§4.5, GLOSSARY "Jaccard overlap").
func (c ConceptList) Terms() map[string]struct{} {
	terms := make(map[string]struct{}, len(c.Concepts))
	for _, concept := range c.Concepts {
		term := normalizeTerm(concept.Term)
		if term != "" {
			terms[term] = struct{}{}
		}
	}
	return terms
}

// EmotionalTone is the typed sub-record backing chunks.emotional_metadata.
// Polarity is nil when the column is null or the JSON value is missing or
// not a number.
type EmotionalTone struct {
	Polarity *float64 `json:"polarity"`
}

// Value implements driver.Valuer.
func (e EmotionalTone) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner.
func (e *EmotionalTone) Scan(value interface{}) error {
	e.Polarity = nil
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("emotional_metadata: type assertion to []byte failed"))
	}
	if len(b) == 0 {
		return nil
	}

	var raw struct {
		Polarity json.RawMessage `json:"polarity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return helper.NewError("unmarshal emotional_metadata", err)
	}
	if len(raw.Polarity) == 0 {
		return nil
	}

	var polarity float64
	if err := json.Unmarshal(raw.Polarity, &polarity); err != nil {
		// Mis-typed polarity: treat as absent rather than failing the scan.
		return nil
	}
	e.Polarity = &polarity
	return nil
}

// DomainTag is the typed sub-record backing chunks.domain_metadata.
type DomainTag struct {
	PrimaryDomain *string `json:"primaryDomain"`
}

// Value implements driver.Valuer.
func (d DomainTag) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *DomainTag) Scan(value interface{}) error {
	d.PrimaryDomain = nil
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("domain_metadata: type assertion to []byte failed"))
	}
	if len(b) == 0 {
		return nil
	}

	var raw struct {
		PrimaryDomain *string `json:"primaryDomain"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return helper.NewError("unmarshal domain_metadata", err)
	}
	d.PrimaryDomain = raw.PrimaryDomain
	return nil
}
