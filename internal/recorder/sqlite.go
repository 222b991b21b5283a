package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"fpl-strategy-mcp/internal/model"
)

// SQLiteRecorder persists plans and bookmarks to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Readers (the MCP tools) run alongside the refresh job's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			entry_id   INTEGER NOT NULL,
			cycle      INTEGER NOT NULL,
			body       TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_entry ON plans(entry_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS chip_bookmarks (
			entry_id   INTEGER NOT NULL,
			chip       TEXT NOT NULL,
			cycle      INTEGER NOT NULL,
			locked     INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (entry_id, chip, cycle)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordPlan stores body under a new plan id and returns the id.
func (r *SQLiteRecorder) RecordPlan(kind string, entryID, cycle int, body []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	_, err := r.db.Exec(`INSERT INTO plans (id, kind, entry_id, cycle, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, entryID, cycle, string(body), r.now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}
	return id, nil
}

// Plans returns the entry's most recent plans, newest first.
func (r *SQLiteRecorder) Plans(entryID, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, kind, entry_id, cycle, body, created_at
		FROM plans WHERE entry_id = ? ORDER BY created_at DESC LIMIT ?`, entryID, limit)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		var (
			p    PlanRecord
			body string
			ts   int64
		)
		if err := rows.Scan(&p.ID, &p.Kind, &p.EntryID, &p.Cycle, &body, &ts); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Body = []byte(body)
		p.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveBookmark inserts or updates the bookmark for (entry, chip, cycle).
func (r *SQLiteRecorder) SaveBookmark(b Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	locked := 0
	if b.Locked {
		locked = 1
	}
	_, err := r.db.Exec(`INSERT INTO chip_bookmarks (entry_id, chip, cycle, locked, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entry_id, chip, cycle) DO UPDATE SET locked = excluded.locked, updated_at = excluded.updated_at`,
		b.EntryID, b.Chip.String(), b.Cycle, locked, r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) DeleteBookmark(entryID int, chip model.ChipType, cycle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec(`DELETE FROM chip_bookmarks WHERE entry_id = ? AND chip = ? AND cycle = ?`,
		entryID, chip.String(), cycle); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// Bookmarks returns the entry's bookmarks ordered by cycle.
func (r *SQLiteRecorder) Bookmarks(entryID int) ([]Bookmark, error) {
	rows, err := r.db.Query(`SELECT entry_id, chip, cycle, locked, updated_at
		FROM chip_bookmarks WHERE entry_id = ? ORDER BY cycle, chip`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		var (
			b      Bookmark
			chip   string
			locked int
			ts     int64
		)
		if err := rows.Scan(&b.EntryID, &chip, &b.Cycle, &locked, &ts); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		t, err := model.ParseChipType(chip)
		if err != nil {
			return nil, err
		}
		b.Chip = t
		b.Locked = locked == 1
		b.UpdatedAt = time.Unix(0, ts).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
