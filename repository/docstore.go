package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Logical collections used by the pipeline. Child collections link back to
// the base record through a record_id field.
const (
	CollectionRecords            = "award_records"
	CollectionScoreRules         = "score_rules"
	CollectionTeamManagement     = "team_management"
	CollectionInterpretationLogs = "interpretation_logs"
)

// DocumentStore is the generic document-store boundary. The pipeline only
// creates rows and replaces them whole; it never read-modifies-writes.
// DeleteChildren exists solely so Update can re-create (not patch) the child
// collections of a record.
type DocumentStore interface {
	Create(ctx context.Context, collection string, fields map[string]interface{}) (uuid.UUID, error)
	Update(ctx context.Context, collection string, id uuid.UUID, fields map[string]interface{}) error
	DeleteChildren(ctx context.Context, collection string, recordID uuid.UUID) error
}

// PersistenceError wraps a failed store write with enough context to surface
// to the caller.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// docFields renders v as a store field map through JSON, then strips absent
// values. This is the single serialization boundary applied before every
// store write; the store does not accept absent markers.
func docFields(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return stripAbsent(m), nil
}

// stripAbsent removes nil-valued fields recursively.
func stripAbsent(m map[string]interface{}) map[string]interface{} {
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			delete(m, key)
		case map[string]interface{}:
			m[key] = stripAbsent(v)
		case []interface{}:
			for i, item := range v {
				if nested, ok := item.(map[string]interface{}); ok {
					v[i] = stripAbsent(nested)
				}
			}
		}
	}
	return m
}
