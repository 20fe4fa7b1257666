package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calvinalkan/cuckoodo/internal/issue"
)

// SQLite stores issues in a SQLite database.
type SQLite struct {
	sql *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if ctx == nil {
		return nil, errors.New("open store: context is nil")
	}

	if path == "" {
		return nil, errors.New("open store: path is empty")
	}

	err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o750)
	if err != nil {
		return nil, fmt.Errorf("open store: create directory: %w", err)
	}

	db, err := openSqlite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	err = ensureSchema(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("open store: %w", err)
	}

	return &SQLite{sql: db}, nil
}

// Close releases the SQLite handle opened by OpenSQLite.
func (s *SQLite) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}

	err := s.sql.Close()
	if err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}

	return nil
}

// Insert adds a new issue.
func (s *SQLite) Insert(ctx context.Context, it issue.Issue) error {
	var intervalSec sql.NullInt64
	if it.Interval != nil {
		intervalSec = sql.NullInt64{Int64: int64(*it.Interval / time.Second), Valid: true}
	}

	var done sql.NullInt64
	if it.Done {
		done = sql.NullInt64{Int64: 1, Valid: true}
	}

	_, err := s.sql.ExecContext(ctx, `
		INSERT INTO issues (id, text, owner, created_at, assignee, interval_sec, done)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Text, it.Owner, it.Created.UnixNano(), it.Assignee, intervalSec, done)
	if err != nil {
		return fmt.Errorf("insert issue %s: %w", it.ID, err)
	}

	return nil
}

const selectColumns = `SELECT id, text, owner, created_at, assignee, interval_sec, done FROM issues`

// Find returns the issues matching f in creation order.
func (s *SQLite) Find(ctx context.Context, f issue.Filter) ([]issue.Issue, error) {
	clauses := []string{"owner = ?"}
	args := []any{f.Owner}

	if f.Assignee != "" {
		clauses = append(clauses, "assignee = ?")
		args = append(args, f.Assignee)
	}

	query := strings.Builder{}
	query.WriteString(selectColumns)
	query.WriteString(" WHERE ")
	query.WriteString(strings.Join(clauses, " AND "))
	query.WriteString(" ORDER BY created_at, seq")

	rows, err := s.sql.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}

	defer func() { _ = rows.Close() }()

	var out []issue.Issue

	for rows.Next() {
		it, scanErr := scanIssue(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("find issues: %w", scanErr)
		}

		out = append(out, it)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}

	return out, nil
}

// Get returns the issue with id.
func (s *SQLite) Get(ctx context.Context, id string) (issue.Issue, error) {
	row := s.sql.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)

	it, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return issue.Issue{}, fmt.Errorf("%w: %s", issue.ErrNotFound, id)
	}

	if err != nil {
		return issue.Issue{}, fmt.Errorf("get issue %s: %w", id, err)
	}

	return it, nil
}

// SetDone marks the issue done.
func (s *SQLite) SetDone(ctx context.Context, id string) error {
	return s.execByID(ctx, "set done", id, "UPDATE issues SET done = 1 WHERE id = ?", id)
}

// SetAssignee moves the issue to assignee.
func (s *SQLite) SetAssignee(ctx context.Context, id, assignee string) error {
	return s.execByID(ctx, "set assignee", id, "UPDATE issues SET assignee = ? WHERE id = ?", assignee, id)
}

// Delete removes the issue.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	return s.execByID(ctx, "delete", id, "DELETE FROM issues WHERE id = ?", id)
}

func (s *SQLite) execByID(ctx context.Context, op, id, stmt string, args ...any) error {
	res, err := s.sql.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, id, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w: %s", op, issue.ErrNotFound, id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (issue.Issue, error) {
	var (
		it          issue.Issue
		createdNS   int64
		intervalSec sql.NullInt64
		done        sql.NullInt64
	)

	err := row.Scan(&it.ID, &it.Text, &it.Owner, &createdNS, &it.Assignee, &intervalSec, &done)
	if err != nil {
		return issue.Issue{}, err
	}

	it.Created = time.Unix(0, createdNS).UTC()
	it.Done = done.Valid

	if intervalSec.Valid {
		d := time.Duration(intervalSec.Int64) * time.Second
		it.Interval = &d
	}

	return it, nil
}
