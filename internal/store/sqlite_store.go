package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/kittclouds/glyphsim/pkg/evaluate"
	"github.com/kittclouds/glyphsim/pkg/ranking"
)

// SQLiteStore is the SQLite-backed data store.
// Safe for concurrent use; the ranking engine writes from its sink lock.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines all tables. Similar lists and case results are stored as
// JSON since they are only ever read back whole.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    cutoff INTEGER NOT NULL,
    threads INTEGER NOT NULL,
    characters INTEGER NOT NULL,
    processed INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT,
    started_at INTEGER NOT NULL,
    finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS rankings (
    run_id TEXT NOT NULL,
    character TEXT NOT NULL,
    similar TEXT NOT NULL,
    PRIMARY KEY (run_id, character)
);

CREATE TABLE IF NOT EXISTS evaluations (
    run_id TEXT PRIMARY KEY,
    cases TEXT NOT NULL,
    skipped INTEGER NOT NULL,
    mean_reciprocal REAL NOT NULL,
    mean_position REAL NOT NULL,
    under_threshold REAL NOT NULL,
    refs INTEGER NOT NULL,
    found INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every pooled connection to ":memory:" would see its own database
	db.SetMaxOpenConns(1)

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Runs
// =============================================================================

// CreateRun inserts a new run. Status defaults to StatusRunning.
func (s *SQLiteStore) CreateRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := run.Status
	if status == "" {
		status = StatusRunning
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, command, cutoff, threads, characters, processed, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Command, run.Cutoff, run.Threads, run.Characters, run.Processed,
		status, run.Error, run.StartedAt, nullInt64(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (s *SQLiteStore) FinishRun(id string, processed int64, finishedAt int64, runErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, msg := finishStatus(runErr)
	res, err := s.db.Exec(`
		UPDATE runs SET processed = ?, status = ?, error = ?, finished_at = ? WHERE id = ?
	`, processed, status, msg, finishedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun retrieves a run by ID, or nil if it does not exist.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run Run
	var msg sql.NullString
	var finishedAt sql.NullInt64

	err := s.db.QueryRow(`
		SELECT id, command, cutoff, threads, characters, processed, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id).Scan(
		&run.ID, &run.Command, &run.Cutoff, &run.Threads, &run.Characters, &run.Processed,
		&run.Status, &msg, &run.StartedAt, &finishedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.Error = msg.String
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Int64
	}
	return &run, nil
}

// =============================================================================
// Rankings
// =============================================================================

// PutRanking inserts or replaces the entry of one character.
func (s *SQLiteStore) PutRanking(runID string, entry ranking.Entry) error {
	similar, err := ToJSON(entry.Similar)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO rankings (run_id, character, similar) VALUES (?, ?, ?)
		ON CONFLICT(run_id, character) DO UPDATE SET similar = excluded.similar
	`, runID, entry.Character, string(similar))
	return err
}

// GetRanking retrieves the entry of one character, or nil.
func (s *SQLiteStore) GetRanking(runID, character string) (*ranking.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var similar string
	err := s.db.QueryRow(`
		SELECT similar FROM rankings WHERE run_id = ? AND character = ?
	`, runID, character).Scan(&similar)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	matches, err := FromJSON[[]ranking.Match]([]byte(similar))
	if err != nil {
		return nil, fmt.Errorf("decode ranking of %s: %w", character, err)
	}
	return &ranking.Entry{Character: character, Similar: *matches}, nil
}

// ListRankings returns every entry of a run ordered by character.
func (s *SQLiteStore) ListRankings(runID string) ([]ranking.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT character, similar FROM rankings WHERE run_id = ? ORDER BY character
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ranking.Entry
	for rows.Next() {
		var character, similar string
		if err := rows.Scan(&character, &similar); err != nil {
			return nil, err
		}
		matches, err := FromJSON[[]ranking.Match]([]byte(similar))
		if err != nil {
			return nil, fmt.Errorf("decode ranking of %s: %w", character, err)
		}
		entries = append(entries, ranking.Entry{Character: character, Similar: *matches})
	}

	return entries, rows.Err()
}

// CountRankings returns the number of entries stored for a run.
func (s *SQLiteStore) CountRankings(runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM rankings WHERE run_id = ?", runID).Scan(&count)
	return count, err
}

// =============================================================================
// Evaluations
// =============================================================================

// PutEvaluation inserts or replaces the evaluation of a run.
func (s *SQLiteStore) PutEvaluation(ev *Evaluation) error {
	cases, err := ToJSON(ev.Cases)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO evaluations
			(run_id, cases, skipped, mean_reciprocal, mean_position, under_threshold, refs, found, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.RunID, string(cases), ev.Skipped, ev.MeanReciprocal, ev.MeanPosition, ev.UnderThreshold,
		ev.References, ev.Found, ev.CreatedAt)
	return err
}

// GetEvaluation retrieves the evaluation of a run, or nil.
func (s *SQLiteStore) GetEvaluation(runID string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev := Evaluation{RunID: runID}
	var cases string
	err := s.db.QueryRow(`
		SELECT cases, skipped, mean_reciprocal, mean_position, under_threshold, refs, found, created_at
		FROM evaluations WHERE run_id = ?
	`, runID).Scan(
		&cases, &ev.Skipped, &ev.MeanReciprocal, &ev.MeanPosition, &ev.UnderThreshold,
		&ev.References, &ev.Found, &ev.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	results, err := FromJSON[[]evaluate.CaseResult]([]byte(cases))
	if err != nil {
		return nil, fmt.Errorf("decode evaluation of %s: %w", runID, err)
	}
	ev.Cases = *results
	return &ev, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
