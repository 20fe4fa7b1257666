package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// currentSchemaVersion is stored in SQLite's user_version pragma.
// Increment this whenever the schema changes (tables, columns, indices).
const currentSchemaVersion = 1

// openSqlite opens the database and applies the configured pragmas.
func openSqlite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	err = applyPragmas(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

// sqliteBusyTimeout is the time SQLite waits when the database is locked.
// After this, operations return SQLITE_BUSY.
const sqliteBusyTimeout = 10000 // milliseconds

// applyPragmas configures the SQLite connection using a single batch statement.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
		PRAGMA temp_store = MEMORY;
	`, sqliteBusyTimeout))
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}

	return nil
}

// storedSchemaVersion reads the current SQLite PRAGMA user_version.
func storedSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	row := db.QueryRowContext(ctx, "PRAGMA user_version")

	var version int

	err := row.Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}

	return version, nil
}

// ensureSchema creates the schema on an empty database and rejects databases
// written by another schema version. Issues are the source of truth here, so
// there is nothing to rebuild a mismatched database from.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	version, err := storedSchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}

	if version != 0 {
		return fmt.Errorf("%w: %d (want %d)", ErrSchemaVersion, version, currentSchemaVersion)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	// seq records insertion order; it breaks ties between equal created_at.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS issues (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			owner INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			assignee TEXT NOT NULL,
			interval_sec INTEGER,
			done INTEGER
		)`,
		"CREATE INDEX IF NOT EXISTS idx_owner_assignee ON issues(owner, assignee, created_at, seq)",
		"CREATE INDEX IF NOT EXISTS idx_owner_created ON issues(owner, created_at, seq)",
		fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion),
	}

	for i, stmt := range statements {
		_, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	return nil
}
