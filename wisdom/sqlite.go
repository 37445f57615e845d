package wisdom

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore persists transform plans in a SQLite database so repeated runs
// with the same FFT size skip measurement
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the plan database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening plan database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// createTables creates the plans table if it doesn't exist
func createTables(db *sql.DB) error {
	createPlansTable := `
    CREATE TABLE IF NOT EXISTS plans (
        size INTEGER PRIMARY KEY,
        backend TEXT NOT NULL,
        ns_per_op REAL NOT NULL,
        measured_at TEXT NOT NULL
    );
    `

	_, err := db.Exec(createPlansTable)
	return err
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.path
}

// Lookup returns the stored plan for size, if any
func (s *SQLiteStore) Lookup(size int) (spectral.Plan, bool, error) {
	row := s.db.QueryRow("SELECT size, backend, ns_per_op, measured_at FROM plans WHERE size = ?", size)

	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return spectral.Plan{}, false, nil
	}
	if err != nil {
		return spectral.Plan{}, false, fmt.Errorf("error looking up plan for size %d: %w", size, err)
	}

	return plan, true, nil
}

// Store inserts or replaces the plan for plan.Size
func (s *SQLiteStore) Store(plan spectral.Plan) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO plans (size, backend, ns_per_op, measured_at) VALUES (?, ?, ?, ?)",
		plan.Size, string(plan.Backend), plan.NsPerOp, plan.MeasuredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrReadonly {
			return fmt.Errorf("plan database %s is read-only: %w", s.path, err)
		}
		return fmt.Errorf("error storing plan for size %d: %w", plan.Size, err)
	}
	return nil
}

// List returns every stored plan ordered by size
func (s *SQLiteStore) List() ([]spectral.Plan, error) {
	rows, err := s.db.Query("SELECT size, backend, ns_per_op, measured_at FROM plans ORDER BY size")
	if err != nil {
		return nil, fmt.Errorf("error listing plans: %w", err)
	}
	defer rows.Close()

	var plans []spectral.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

// Delete removes the plan for size
func (s *SQLiteStore) Delete(size int) error {
	_, err := s.db.Exec("DELETE FROM plans WHERE size = ?", size)
	if err != nil {
		return fmt.Errorf("error deleting plan for size %d: %w", size, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (spectral.Plan, error) {
	var (
		plan       spectral.Plan
		backend    string
		measuredAt string
	)

	if err := row.Scan(&plan.Size, &backend, &plan.NsPerOp, &measuredAt); err != nil {
		return spectral.Plan{}, err
	}

	plan.Backend = spectral.Backend(backend)

	t, err := time.Parse(time.RFC3339Nano, measuredAt)
	if err != nil {
		return spectral.Plan{}, fmt.Errorf("bad measured_at %q: %w", measuredAt, err)
	}
	plan.MeasuredAt = t

	return plan, nil
}
