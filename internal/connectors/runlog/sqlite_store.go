package runlog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go-parametric-sim-tracker/internal/matrix"
)

// Snapshot is one archived matrix summary row.
type Snapshot struct {
	ID              int64      `json:"id"`
	Label           string     `json:"label"`
	Total           int64      `json:"total"`
	Pending         int64      `json:"pending"`
	Queued          int64      `json:"queued"`
	Running         int64      `json:"running"`
	Completed       int64      `json:"completed"`
	Failed          int64      `json:"failed"`
	ProgressPercent float64    `json:"progress_percent"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

// Store archives matrix snapshot summaries in SQLite. It is an opt-in
// operator convenience; the matrix itself never persists.
type Store struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS matrix_snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  label TEXT NOT NULL DEFAULT '',
  total INTEGER NOT NULL,
  pending INTEGER NOT NULL,
  queued INTEGER NOT NULL,
  running INTEGER NOT NULL,
  completed INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  progress_percent REAL NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_ms_created_at ON matrix_snapshots(created_at);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the backing SQLite file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveSnapshot archives one stat block and returns its row id.
func (s *Store) SaveSnapshot(ctx context.Context, label string, stats matrix.Stats) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO matrix_snapshots (label, total, pending, queued, running, completed, failed, progress_percent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, strings.TrimSpace(label), stats.Total, stats.Pending, stats.Queued, stats.Running, stats.Completed, stats.Failed, stats.ProgressPercent)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, label, total, pending, queued, running, completed, failed, progress_percent, created_at
FROM matrix_snapshots
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Snapshot, 0, limit)
	for rows.Next() {
		var item Snapshot
		var created sql.NullTime
		if err := rows.Scan(&item.ID, &item.Label, &item.Total, &item.Pending, &item.Queued,
			&item.Running, &item.Completed, &item.Failed, &item.ProgressPercent, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			t := created.Time
			item.CreatedAt = &t
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ServiceStats is a lightweight health probe for the status dashboard.
func (s *Store) ServiceStats(ctx context.Context) (map[string]any, error) {
	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matrix_snapshots;`).Scan(&count); err != nil {
		return nil, err
	}

	return map[string]any{
		"ping_ms":   time.Since(start).Milliseconds(),
		"path":      s.path,
		"snapshots": count,
	}, nil
}
