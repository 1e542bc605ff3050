package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/casesched/core/metrics"
	"github.com/kilianp07/casesched/core/table"
)

// SQLiteStore keeps a queryable copy of derived tables and a history of runs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS runs (
        run_id TEXT PRIMARY KEY,
        started INTEGER,
        finished INTEGER,
        input_path TEXT,
        output_path TEXT,
        summary TEXT,
        error TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SaveTable replaces table name with the rows of t. Every column is TEXT
// rendered as in the CSV export; nulls are stored as NULL.
func (s *SQLiteStore) SaveTable(ctx context.Context, name string, t *table.Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c) + " TEXT"
		marks[i] = "?"
	}
	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(name)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(name), strings.Join(cols, ", "))); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(name), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	dateOnly := t.DateOnlyColumns()
	args := make([]any, len(t.Columns))
	for _, r := range t.Rows {
		for i, v := range r {
			if v.IsNull() {
				args[i] = nil
			} else {
				args[i] = v.Format(dateOnly[i])
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordRun appends the summary to the run history.
func (s *SQLiteStore) RecordRun(ctx context.Context, r metrics.RunSummary) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var errText any
	if r.Error != "" {
		errText = r.Error
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started, finished, input_path, output_path, summary, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Start.UnixMilli(), r.End.UnixMilli(), r.InputPath, r.OutputPath, string(b), errText)
	return err
}

// Runs returns the most recent runs, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]metrics.RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT summary FROM runs ORDER BY finished DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []metrics.RunSummary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r metrics.RunSummary
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// LastSuccess returns when the last successful run finished.
func (s *SQLiteStore) LastSuccess(ctx context.Context) (time.Time, bool, error) {
	var ms sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(finished) FROM runs WHERE error IS NULL`).Scan(&ms)
	if err != nil {
		return time.Time{}, false, err
	}
	if !ms.Valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms.Int64), true, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
