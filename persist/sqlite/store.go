// Package sqlite provides the SQL snapshot history store.
//
// Every snapshot is stored indefinitely; callers own retention and can use
// PruneSnapshots to keep only the most recent N per component.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/persist"
)

//go:embed schema.sql
var schemaSQL string

// Store holds snapshot history in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Safe to call multiple times on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent snapshot writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// SaveSnapshot stores one snapshot, returning the inserted row id.
// at defaults to the current UTC time when zero.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot persist.Snapshot, at time.Time) (int64, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO flexiflow_snapshots (component_name, snapshot_json, created_at)
		VALUES (?, ?, ?)
	`, snapshot.Name, string(payload), at.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot loads the most recent snapshot for a component.
// Returns (zero, false, nil) when the component has no snapshots.
func (s *Store) LatestSnapshot(ctx context.Context, componentName string) (persist.Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot_json FROM flexiflow_snapshots
		WHERE component_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, componentName)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return persist.Snapshot{}, false, nil
		}
		return persist.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot persist.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		ectx := ferrors.Context{}.Add("component_name", componentName).Add("error", err.Error())
		return persist.Snapshot{}, false, ferrors.Newf(ferrors.KindPersistence,
			"Invalid JSON in snapshot for %q", componentName).
			WithWhy("The database contains a snapshot with malformed JSON.").
			WithFix("Delete the corrupted row from flexiflow_snapshots, or prune old entries.").
			WithContext(ectx)
	}
	return snapshot, true, nil
}

// SnapshotInfo summarizes one stored snapshot row.
type SnapshotInfo struct {
	ID           int64  `json:"id"`
	CreatedAt    string `json:"created_at"`
	CurrentState string `json:"current_state"`
}

// ListSnapshots returns up to limit recent snapshots for a component,
// newest first. Rows with corrupt payloads report their state as "invalid"
// rather than failing the listing.
func (s *Store) ListSnapshots(ctx context.Context, componentName string, limit int) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snapshot_json, created_at FROM flexiflow_snapshots
		WHERE component_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, componentName, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var payload string
		if err := rows.Scan(&info.ID, &payload, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}

		var snapshot persist.Snapshot
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			info.CurrentState = "invalid"
		} else {
			info.CurrentState = snapshot.CurrentState
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return infos, nil
}

// PruneSnapshots deletes old snapshots for a component, keeping the most
// recent keepLast. Returns the number of rows deleted.
func (s *Store) PruneSnapshots(ctx context.Context, componentName string, keepLast int) (int64, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id FROM flexiflow_snapshots
		WHERE component_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1 OFFSET ?
	`, componentName, keepLast)

	var cutoffID int64
	if err := row.Scan(&cutoffID); err != nil {
		if err == sql.ErrNoRows {
			// Fewer than keepLast snapshots exist, nothing to prune.
			return 0, nil
		}
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM flexiflow_snapshots
		WHERE component_name = ? AND id <= ?
	`, componentName, cutoffID)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return deleted, nil
}
