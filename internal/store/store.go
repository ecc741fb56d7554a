// Package store is the reference implementation of interfaces.Persistence,
// backed by modernc.org/sqlite — the same pure-Go sqlite driver the teacher
// uses for its own local-first store (internal/store/store.go: WAL mode,
// foreign keys on, embedded migrations run transactionally on Open).
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/hartonomous/substrate/internal/interfaces"
	"github.com/hartonomous/substrate/internal/logger"
	"github.com/hartonomous/substrate/internal/substrate"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed interfaces.Persistence.
type Store struct {
	db execer
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting Query/Execute/
// BulkCopy share one implementation whether or not they run inside a
// transaction scope.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) a sqlite database at dsn and runs any
// pending migrations. dsn is passed straight to database/sql, e.g.
// "file:/path/to/substrate.db" or ":memory:".
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", substrate.ErrPersistence, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", substrate.ErrPersistence, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable foreign keys: %v", substrate.ErrPersistence, err)
	}
	s := &Store{db: db}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", substrate.ErrPersistence, err)
	}
	return s, nil
}

// Close closes the underlying database handle. Only valid on the
// top-level Store returned by Open, not on a transaction scope's handle.
func (s *Store) Close() error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return nil
	}
	return db.Close()
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
		logger.Debug("applied migration", "file", f)
	}
	return nil
}

// sqlRow adapts *sql.Rows to interfaces.Row.
type sqlRow struct{ rows *sql.Rows }

func (r sqlRow) Scan(dest ...any) error { return r.rows.Scan(dest...) }

// Query implements interfaces.Persistence.
func (s *Store) Query(ctx context.Context, query string, params []any, cb interfaces.RowCallback) error {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("%w: query: %v", substrate.ErrPersistence, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := cb(sqlRow{rows}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: row iteration: %v", substrate.ErrPersistence, err)
	}
	return nil
}

// QuerySingle implements interfaces.Persistence.
func (s *Store) QuerySingle(ctx context.Context, query string, params []any) (*string, error) {
	var out string
	err := s.db.QueryRowContext(ctx, query, params...).Scan(&out)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query_single: %v", substrate.ErrPersistence, err)
	}
	return &out, nil
}

// Execute implements interfaces.Persistence.
func (s *Store) Execute(ctx context.Context, query string, params []any) error {
	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return fmt.Errorf("%w: execute: %v", substrate.ErrPersistence, err)
	}
	return nil
}

// Transaction implements interfaces.Persistence: opens a real sql.Tx,
// commits on normal return, rolls back on any error propagating out of
// scope. spec.md §4.3, §9 "scope-bound transactions".
func (s *Store) Transaction(ctx context.Context, scope func(tx interfaces.Persistence) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fmt.Errorf("%w: nested transactions are not supported", substrate.ErrInvalidInput)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", substrate.ErrPersistence, err)
	}
	txStore := &Store{db: tx}
	if err := scope(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", substrate.ErrPersistence, err)
	}
	return nil
}

// BulkCopy implements interfaces.Persistence. sqlite has no native COPY
// protocol, so this batches a single multi-row INSERT per call inside
// whatever transaction scope it's called from — functionally equivalent
// dedup/ordering behavior to a native bulk-copy path, just without the
// wire-level streaming a real COPY gives a networked store.
func (s *Store) BulkCopy(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	placeholderRow := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT OR IGNORE INTO %s (%s) VALUES ", table, strings.Join(columns, ","))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("%w: bulk_copy: row %d has %d values, want %d", substrate.ErrInvalidInput, i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(placeholderRow)
		args = append(args, row...)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("%w: bulk_copy %s: %v", substrate.ErrPersistence, table, err)
	}
	return nil
}

// ObservationsToFloat64 is the "helper function converting unsigned 64-bit
// observation counts to double precision" called out in spec.md §6 bullet
// 1. Implemented application-side rather than as a registered SQL scalar
// function: modernc.org/sqlite's database/sql driver doesn't expose
// sqlite3_create_function. The read paths in this module (candidate
// aggregation, A* edge cost) convert with float64() directly and do not
// call it. See DESIGN.md.
func ObservationsToFloat64(o uint64) float64 {
	return float64(o)
}
