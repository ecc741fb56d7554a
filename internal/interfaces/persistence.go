// Package interfaces centralizes the abstract contracts the core speaks
// through, following the teacher's own internal/interfaces package (which
// defined ConfigManager, HistoryStore, LLMProvider as pluggable seams). Here
// the seams are the relational store (spec.md §4.3, §6 bullet 1) and the
// model artifact reader (spec.md §6 bullet 2) — both explicitly out of
// scope to implement "for real", reached only through these interfaces.
package interfaces

import "context"

// Row is one result row from a streaming query, addressable by column
// index; RowCallback receives each row in turn and can abort by returning
// an error.
type Row interface {
	Scan(dest ...any) error
}

// RowCallback processes one streamed row.
type RowCallback func(row Row) error

// Persistence is the relational store contract: parameterized streaming
// reads, parameterized DML, scoped transactions, and bulk COPY-style
// inserts. spec.md §4.3.
type Persistence interface {
	// Query runs a parameterized read, streaming rows to cb.
	Query(ctx context.Context, sql string, params []any, cb RowCallback) error

	// QuerySingle returns the first column of the first row, or
	// (nil, nil) if no rows matched.
	QuerySingle(ctx context.Context, sql string, params []any) (*string, error)

	// Execute runs a parameterized DML statement.
	Execute(ctx context.Context, sql string, params []any) error

	// Transaction runs scope against a transactional handle: commits on
	// normal return, rolls back if scope returns an error.
	Transaction(ctx context.Context, scope func(tx Persistence) error) error

	// BulkCopy appends rows to table via a high-throughput COPY-style
	// path. Each row is a positional slice matching the table's bulk-copy
	// column order.
	BulkCopy(ctx context.Context, table string, columns []string, rows [][]any) error
}
