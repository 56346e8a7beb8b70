package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quentinrf/easyplant/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// StateRepository persists raw sensor states with SQLite. It backs the
// brightness-history backfill across restarts.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a SQLite-backed repository
func NewStateRepository(dbPath string) (*StateRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create table if not exists
	schema := `
	CREATE TABLE IF NOT EXISTS sensor_states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id TEXT NOT NULL,
		state TEXT NOT NULL,
		last_updated DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entity_updated ON sensor_states(entity_id, last_updated);
	`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &StateRepository{db: db}, nil
}

// SaveState stores one raw sensor state
func (r *StateRepository) SaveState(ctx context.Context, entityID, state string, ts time.Time) error {
	query := `INSERT INTO sensor_states (entity_id, state, last_updated) VALUES (?, ?, ?)`

	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, query, entityID, state, ts.Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to insert state: %w", err)
	}
	return nil
}

// StatesSince returns the stored states of an entity from since on,
// oldest first. States are returned raw; callers tolerate malformed
// values.
func (r *StateRepository) StatesSince(ctx context.Context, entityID string, since time.Time) ([]domain.StateRecord, error) {
	query := `
		SELECT state, last_updated
		FROM sensor_states
		WHERE entity_id = ? AND last_updated >= ?
		ORDER BY last_updated ASC
	`

	rows, err := r.db.QueryContext(ctx, query, entityID, since.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	var records []domain.StateRecord
	for rows.Next() {
		var rec domain.StateRecord
		var updated string

		if err := rows.Scan(&rec.State, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}

		rec.Timestamp, err = time.ParseInLocation(timeLayout, updated, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteOldStates removes states older than specified duration
func (r *StateRepository) DeleteOldStates(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	query := `DELETE FROM sensor_states WHERE last_updated < ?`

	if _, err := r.db.ExecContext(ctx, query, cutoff.Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to delete old states: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *StateRepository) Close() error {
	return r.db.Close()
}
