package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	insertRunSQL = `INSERT INTO run (label, true_path, generated_path, attempts, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	insertRunMetricSQL = `INSERT INTO run_metric (run_id, attempt, reference, candidate, r2, mae, n, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT id, label, true_path, generated_path, attempts, row_count, created_at
		FROM run
		WHERE label = COALESCE(?, label)
		ORDER BY id DESC
		LIMIT ?
	`

	selectRunSQL = `SELECT id, label, true_path, generated_path, attempts, row_count, created_at
		FROM run
		WHERE id = ?
	`

	selectRunMetricsSQL = `SELECT attempt, reference, candidate, r2, mae, n, error
		FROM run_metric
		WHERE run_id = ?
		ORDER BY attempt, reference, candidate
	`

	deleteRunMetricsSQL = `DELETE FROM run_metric WHERE run_id = ?`
	deleteRunSQL        = `DELETE FROM run WHERE id = ?`
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored evaluation.
type Run struct {
	ID            int64     `json:"id" yaml:"id"`
	Label         string    `json:"label,omitempty" yaml:"label,omitempty"`
	TruePath      string    `json:"true_path" yaml:"truePath"`
	GeneratedPath string    `json:"generated_path" yaml:"generatedPath"`
	Attempts      int       `json:"attempts" yaml:"attempts"`
	Rows          int       `json:"rows" yaml:"rows"`
	CreatedAt     string    `json:"created_at" yaml:"createdAt"`
	Metrics       []*Metric `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Metric is the stored score of one column pair. R2 and MAE are nil when undefined.
type Metric struct {
	Attempt   int      `json:"attempt" yaml:"attempt"`
	Reference string   `json:"reference" yaml:"reference"`
	Candidate string   `json:"candidate" yaml:"candidate"`
	R2        *float64 `json:"r2,omitempty" yaml:"r2,omitempty"`
	MAE       *float64 `json:"mae,omitempty" yaml:"mae,omitempty"`
	N         int      `json:"n" yaml:"n"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SaveRun stores the run and its metrics in one transaction and returns the run ID.
func SaveRun(db *sql.DB, r *Run) (id int64, err error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if r == nil {
		return 0, errors.New("run required")
	}

	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback() //nolint:errcheck
		}
	}()

	err = tx.QueryRow(rebind(db, insertRunSQL),
		r.Label, r.TruePath, r.GeneratedPath, r.Attempts, r.Rows, r.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(rebind(db, insertRunMetricSQL))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare metric statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range r.Metrics {
		if _, err = stmt.Exec(id, m.Attempt, m.Reference, m.Candidate, nullFloat(m.R2), nullFloat(m.MAE), m.N, m.Error); err != nil {
			return 0, fmt.Errorf("failed to insert metric %s - %s: %w", m.Reference, m.Candidate, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.ID = id
	return id, nil
}

// ListRuns returns the latest runs, optionally filtered by label, newest first.
func ListRuns(db *sql.DB, label *string, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(rebind(db, selectRunsSQL), label, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Label, &r.TruePath, &r.GeneratedPath, &r.Attempts, &r.Rows, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// GetRun returns run id without its metrics.
func GetRun(db *sql.DB, id int64) (*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	r := &Run{}
	err := db.QueryRow(rebind(db, selectRunSQL), id).
		Scan(&r.ID, &r.Label, &r.TruePath, &r.GeneratedPath, &r.Attempts, &r.Rows, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return r, nil
}

// GetRunMetrics returns the metrics stored for run id.
func GetRunMetrics(db *sql.DB, id int64) ([]*Metric, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(rebind(db, selectRunMetricsSQL), id)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics for run %d: %w", id, err)
	}
	defer rows.Close()

	list := make([]*Metric, 0)
	for rows.Next() {
		m := &Metric{}
		var r2, mae sql.NullFloat64
		if err := rows.Scan(&m.Attempt, &m.Reference, &m.Candidate, &r2, &mae, &m.N, &m.Error); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		m.R2 = fromNull(r2)
		m.MAE = fromNull(mae)
		list = append(list, m)
	}
	return list, rows.Err()
}

// DeleteRun removes a run and its metrics.
func DeleteRun(db *sql.DB, id int64) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(rebind(db, deleteRunMetricsSQL), id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("failed to delete metrics of run %d: %w", id, err)
	}
	if _, err := tx.Exec(rebind(db, deleteRunSQL), id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("failed to delete run %d: %w", id, err)
	}
	return tx.Commit()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
