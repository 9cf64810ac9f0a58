package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// collectionTables whitelists the tables backing each logical collection.
var collectionTables = map[string]string{
	CollectionRecords:            "award_records",
	CollectionScoreRules:         "score_rules",
	CollectionTeamManagement:     "team_management",
	CollectionInterpretationLogs: "interpretation_logs",
}

// PostgresStore implements DocumentStore on a Postgres pool, one JSONB fields
// column per collection table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed document store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func tableFor(collection string) (string, error) {
	table, ok := collectionTables[collection]
	if !ok {
		return "", fmt.Errorf("unknown collection: %s", collection)
	}
	return table, nil
}

// Create inserts a new row and returns its generated id.
func (s *PostgresStore) Create(ctx context.Context, collection string, fields map[string]interface{}) (uuid.UUID, error) {
	table, err := tableFor(collection)
	if err != nil {
		return uuid.Nil, err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	var id uuid.UUID
	query := fmt.Sprintf(`INSERT INTO %s (fields) VALUES ($1) RETURNING id`, table)
	if err := s.db.QueryRow(ctx, query, data).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Update replaces the fields of an existing row.
func (s *PostgresStore) Update(ctx context.Context, collection string, id uuid.UUID, fields map[string]interface{}) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET fields = $2, updated_at = NOW() WHERE id = $1`, table)
	tag, err := s.db.Exec(ctx, query, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no row with id %s in %s", id, collection)
	}
	return nil
}

// DeleteChildren removes every row in collection linked to recordID.
func (s *PostgresStore) DeleteChildren(ctx context.Context, collection string, recordID uuid.UUID) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE fields->>'record_id' = $1`, table)
	_, err = s.db.Exec(ctx, query, recordID.String())
	return err
}
