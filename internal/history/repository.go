package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("history record not found")

// Record is one completed run. Storyboard holds the exported JSON document
// and is only populated by Get.
type Record struct {
	ID           string    `json:"id"`
	RunID        string    `json:"runId"`
	FileName     string    `json:"fileName"`
	Mode         string    `json:"mode"`
	SegmentCount int       `json:"segmentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	Storyboard   string    `json:"storyboard,omitempty"`
}

// Store reads and writes history records
type Store struct {
	db *sql.DB
}

// NewStore wraps db; call InitTable before first use
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitTable creates the runs table if it doesn't exist
func (s *Store) InitTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		mode TEXT NOT NULL,
		segment_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		storyboard TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *Store) Save(ctx context.Context, r Record) error {
	query := `INSERT INTO runs (id, run_id, file_name, mode, segment_count, created_at, storyboard) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.RunID, r.FileName, r.Mode, r.SegmentCount, r.CreatedAt.UnixMilli(), r.Storyboard)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	return nil
}

// List returns all records newest first, without storyboard content
func (s *Store) List(ctx context.Context) ([]Record, error) {
	query := `SELECT id, run_id, file_name, mode, segment_count, created_at FROM runs ORDER BY created_at DESC, rowid DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var created int64
		if err := rows.Scan(&r.ID, &r.RunID, &r.FileName, &r.Mode, &r.SegmentCount, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT id, run_id, file_name, mode, segment_count, created_at, storyboard FROM runs WHERE id = ?`
	var r Record
	var created int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.RunID, &r.FileName, &r.Mode, &r.SegmentCount, &created, &r.Storyboard)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	return &r, nil
}
