package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"awardforge-backend/models"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"
)

// Provenance source tags on persisted records.
const (
	SourceInterpretation = "document_interpretation"
	SourceManual         = "manual"
)

// hashKey is fixed so the same extracted text always hashes to the same
// audit value.
var hashKey = []byte("awardforge-interpretation-hash!!")

// ContentHash returns the hex HighwayHash-64 of text, used to reference
// extracted text from audit rows without persisting the text itself.
func ContentHash(text string) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return ""
	}
	if _, err := h.Write([]byte(text)); err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// RecordRepository persists validated canonical records and their nested
// collections as linked rows in the document store.
type RecordRepository struct {
	store DocumentStore
}

// NewRecordRepository creates a record repository over the given store.
func NewRecordRepository(store DocumentStore) *RecordRepository {
	return &RecordRepository{store: store}
}

// Save writes the base record row, one row per score rule (conditions
// embedded), one team-management row if present, and finally an append-only
// interpretation-log row. Base and child write failures abort the save; a
// failed log write is logged and swallowed.
func (r *RecordRepository) Save(ctx context.Context, record *models.CanonicalRecord, prov *models.Provenance, userID uuid.UUID) (uuid.UUID, error) {
	fields, err := r.baseFields(record, prov, userID)
	if err != nil {
		return uuid.Nil, &PersistenceError{Op: "serialize", Collection: CollectionRecords, Err: err}
	}

	recordID, err := r.store.Create(ctx, CollectionRecords, fields)
	if err != nil {
		return uuid.Nil, &PersistenceError{Op: "create", Collection: CollectionRecords, Err: err}
	}

	if err := r.createChildren(ctx, recordID, record); err != nil {
		return uuid.Nil, err
	}

	r.writeInterpretationLog(ctx, recordID, record, prov, userID)

	return recordID, nil
}

// Update rewrites the base row's fields and re-creates (not patches) the
// child collections, preserving the record's identity.
func (r *RecordRepository) Update(ctx context.Context, id uuid.UUID, record *models.CanonicalRecord, prov *models.Provenance, userID uuid.UUID) (uuid.UUID, error) {
	fields, err := r.baseFields(record, prov, userID)
	if err != nil {
		return uuid.Nil, &PersistenceError{Op: "serialize", Collection: CollectionRecords, Err: err}
	}

	if err := r.store.Update(ctx, CollectionRecords, id, fields); err != nil {
		return uuid.Nil, &PersistenceError{Op: "update", Collection: CollectionRecords, Err: err}
	}

	for _, collection := range []string{CollectionScoreRules, CollectionTeamManagement} {
		if err := r.store.DeleteChildren(ctx, collection, id); err != nil {
			return uuid.Nil, &PersistenceError{Op: "delete", Collection: collection, Err: err}
		}
	}
	if err := r.createChildren(ctx, id, record); err != nil {
		return uuid.Nil, err
	}

	r.writeInterpretationLog(ctx, id, record, prov, userID)

	return id, nil
}

// baseFields renders the record's own fields plus system fields. Nested
// collections are stripped here; they live in their own rows.
func (r *RecordRepository) baseFields(record *models.CanonicalRecord, prov *models.Provenance, userID uuid.UUID) (map[string]interface{}, error) {
	fields, err := docFields(record)
	if err != nil {
		return nil, err
	}
	delete(fields, "score_rules")
	delete(fields, "team_management")

	fields["created_by"] = userID.String()
	if prov != nil {
		fields["source"] = SourceInterpretation
		fields["source_hash"] = ContentHash(prov.SourceText)
		if prov.SourceFilename != "" {
			fields["source_file"] = prov.SourceFilename
		}
		if prov.StoragePath != "" {
			fields["storage_path"] = prov.StoragePath
		}
	} else {
		fields["source"] = SourceManual
	}
	return fields, nil
}

func (r *RecordRepository) createChildren(ctx context.Context, recordID uuid.UUID, record *models.CanonicalRecord) error {
	for i, rule := range record.ScoreRules {
		fields, err := docFields(rule)
		if err != nil {
			return &PersistenceError{Op: "serialize", Collection: CollectionScoreRules, Err: err}
		}
		fields["record_id"] = recordID.String()
		fields["sort_order"] = i
		if _, err := r.store.Create(ctx, CollectionScoreRules, fields); err != nil {
			return &PersistenceError{Op: "create", Collection: CollectionScoreRules, Err: err}
		}
	}

	if record.TeamManagement != nil {
		fields, err := docFields(record.TeamManagement)
		if err != nil {
			return &PersistenceError{Op: "serialize", Collection: CollectionTeamManagement, Err: err}
		}
		fields["record_id"] = recordID.String()
		if _, err := r.store.Create(ctx, CollectionTeamManagement, fields); err != nil {
			return &PersistenceError{Op: "create", Collection: CollectionTeamManagement, Err: err}
		}
	}
	return nil
}

// writeInterpretationLog appends the audit row. Explicitly non-critical: a
// failure here never fails the save.
func (r *RecordRepository) writeInterpretationLog(ctx context.Context, recordID uuid.UUID, record *models.CanonicalRecord, prov *models.Provenance, userID uuid.UUID) {
	if prov == nil {
		return
	}

	entry := models.InterpretationLog{
		RecordID:       recordID,
		SourceHash:     ContentHash(prov.SourceText),
		SourceFilename: prov.SourceFilename,
		Backend:        prov.Backend,
		Confidence:     record.Confidence,
		Keywords:       record.ExtractedKeywords,
		Notes:          record.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	if prov.Proposal != nil {
		if raw, err := json.Marshal(prov.Proposal); err == nil {
			entry.RawProposal = raw
		}
	}

	fields, err := docFields(entry)
	if err != nil {
		log.Printf("Warning: failed to serialize interpretation log for record %s: %v", recordID, err)
		return
	}
	delete(fields, "id")
	fields["record_id"] = recordID.String()
	fields["created_by"] = userID.String()

	if _, err := r.store.Create(ctx, CollectionInterpretationLogs, fields); err != nil {
		log.Printf("Warning: failed to write interpretation log for record %s: %v", recordID, err)
	}
}
