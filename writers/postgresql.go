//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 The Refinery Authors
//
// This file is part of Refinery.
//
// Refinery is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Refinery is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Refinery. If not, see https://www.gnu.org/licenses/.

package writers

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/refinelab/refinery/core"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresWriterError wraps PostgreSQL-specific write errors with context
// about the operation.
type PostgresWriterError struct {
	Op  string // Operation that failed (e.g., "configure", "flush_batch")
	Err error
}

func (e *PostgresWriterError) Error() string {
	return fmt.Sprintf("postgres writer %s: %v", e.Op, e.Err)
}

func (e *PostgresWriterError) Unwrap() error {
	return e.Err
}

// ConflictPolicy defines how INSERT conflicts are handled.
type ConflictPolicy int

const (
	// ConflictError surfaces conflicts as errors (plain INSERT).
	ConflictError ConflictPolicy = iota
	// ConflictIgnore drops conflicting rows (ON CONFLICT DO NOTHING).
	ConflictIgnore
	// ConflictUpdate overwrites conflicting rows (ON CONFLICT DO UPDATE).
	ConflictUpdate
)

// PostgresWriterOptions configures the Postgres sink.
type PostgresWriterOptions struct {
	DSN             string   // Connection string
	Table           string   // Target table name
	Columns         []string // Columns to write; inferred from the first record otherwise
	BatchSize       int      // Records buffered per batch
	CreateTable     bool     // Create the target table if it does not exist
	Conflict        ConflictPolicy
	ConflictColumns []string // Uniqueness columns for conflict handling
	UpdateColumns   []string // Columns rewritten on ConflictUpdate
	OnlyRefined     bool     // Skip results with any failed operation
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresWriterOption represents a configuration function for the Postgres
// sink.
type PostgresWriterOption func(*PostgresWriterOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.DSN = dsn }
}

// WithPostgresTable sets the target table name.
func WithPostgresTable(table string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.Table = table }
}

// WithPostgresColumns fixes the columns written, in order.
func WithPostgresColumns(columns []string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) {
		o.Columns = append([]string(nil), columns...)
	}
}

// WithPostgresBatchSize sets the records buffered before a batch insert.
func WithPostgresBatchSize(size int) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.BatchSize = size }
}

// WithPostgresCreateTable creates the target table from the first record's
// shape when it does not exist.
func WithPostgresCreateTable(create bool) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.CreateTable = create }
}

// WithPostgresConflict sets the conflict policy and its column sets.
func WithPostgresConflict(policy ConflictPolicy, conflictCols, updateCols []string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) {
		o.Conflict = policy
		o.ConflictColumns = append([]string(nil), conflictCols...)
		o.UpdateColumns = append([]string(nil), updateCols...)
	}
}

// WithPostgresOnlyRefined drops results carrying a failed operation.
func WithPostgresOnlyRefined(only bool) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.OnlyRefined = only }
}

// WithPostgresWriterConnectionPool configures the connection pool.
func WithPostgresWriterConnectionPool(maxOpen, maxIdle int, maxLifetime time.Duration) PostgresWriterOption {
	return func(o *PostgresWriterOptions) {
		o.MaxOpenConns = maxOpen
		o.MaxIdleConns = maxIdle
		o.ConnMaxLifetime = maxLifetime
	}
}

// PostgresWriter implements core.ResultSink, persisting each result's final
// record as a row in a PostgreSQL table. Records buffer in memory and each
// full batch is inserted inside one transaction, so a failing batch leaves
// the table untouched.
type PostgresWriter struct {
	db          *sql.DB
	columns     []string
	buffer      []core.Record
	initialized bool
	closed      bool
	opts        PostgresWriterOptions
}

// NewPostgresWriter validates options and opens the database handle. Table
// setup and the first insert happen lazily on the first flushed batch.
func NewPostgresWriter(options ...PostgresWriterOption) (*PostgresWriter, error) {
	opts := PostgresWriterOptions{BatchSize: 500}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.DSN == "" {
		return nil, &PostgresWriterError{Op: "configure", Err: fmt.Errorf("DSN is required")}
	}
	if opts.Table == "" {
		return nil, &PostgresWriterError{Op: "configure", Err: fmt.Errorf("table name is required")}
	}
	if opts.BatchSize <= 0 {
		return nil, &PostgresWriterError{Op: "configure", Err: fmt.Errorf("batch size must be positive")}
	}
	if opts.Conflict != ConflictError && len(opts.ConflictColumns) == 0 {
		return nil, &PostgresWriterError{Op: "configure", Err: fmt.Errorf("conflict columns are required for conflict handling")}
	}
	if opts.Conflict == ConflictUpdate && len(opts.UpdateColumns) == 0 {
		return nil, &PostgresWriterError{Op: "configure", Err: fmt.Errorf("update columns are required for conflict updates")}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresWriterError{Op: "connect", Err: err}
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return &PostgresWriter{
		db:      db,
		columns: append([]string(nil), opts.Columns...),
		buffer:  make([]core.Record, 0, opts.BatchSize),
		opts:    opts,
	}, nil
}

// Write implements the ResultSink interface.
func (w *PostgresWriter) Write(ctx context.Context, result core.Result) error {
	if w.closed {
		return &PostgresWriterError{Op: "write", Err: fmt.Errorf("writer is closed")}
	}
	if w.opts.OnlyRefined && result.Failed() {
		return nil
	}

	w.buffer = append(w.buffer, result.Record)
	if len(w.buffer) >= w.opts.BatchSize {
		return w.flushBatch(ctx)
	}
	return nil
}

// Flush implements the ResultSink interface.
func (w *PostgresWriter) Flush() error {
	if w.closed {
		return nil
	}
	return w.flushBatch(context.Background())
}

// Close implements the ResultSink interface, writing any buffered rows
// before releasing the connection.
func (w *PostgresWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.flushBatch(context.Background())
	if err := w.db.Close(); flushErr == nil && err != nil {
		return &PostgresWriterError{Op: "close", Err: err}
	}
	return flushErr
}

// flushBatch inserts the buffered records inside one transaction.
func (w *PostgresWriter) flushBatch(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}

	if !w.initialized {
		if err := w.initialize(ctx, w.buffer[0]); err != nil {
			return &PostgresWriterError{Op: "initialize", Err: err}
		}
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return &PostgresWriterError{Op: "begin", Err: err}
	}

	query := w.insertStatement()
	for _, record := range w.buffer {
		values := make([]interface{}, len(w.columns))
		for i, column := range w.columns {
			values[i] = toSQLValue(record[column])
		}
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			tx.Rollback()
			return &PostgresWriterError{Op: "flush_batch", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PostgresWriterError{Op: "commit", Err: err}
	}
	w.buffer = w.buffer[:0]
	return nil
}

// initialize fixes the column set from the first record and creates the
// target table when requested.
func (w *PostgresWriter) initialize(ctx context.Context, first core.Record) error {
	if len(w.columns) == 0 {
		for column := range first {
			w.columns = append(w.columns, column)
		}
		sort.Strings(w.columns)
	}

	if w.opts.CreateTable {
		if _, err := w.db.ExecContext(ctx, w.createTableStatement(first)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	w.initialized = true
	return nil
}

// insertStatement builds the INSERT for the fixed column set, honoring the
// configured conflict policy.
func (w *PostgresWriter) insertStatement() string {
	placeholders := make([]string, len(w.columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.opts.Table,
		strings.Join(w.columns, ", "),
		strings.Join(placeholders, ", "))

	switch w.opts.Conflict {
	case ConflictIgnore:
		query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING",
			strings.Join(w.opts.ConflictColumns, ", "))
	case ConflictUpdate:
		clauses := make([]string, len(w.opts.UpdateColumns))
		for i, column := range w.opts.UpdateColumns {
			clauses[i] = fmt.Sprintf("%s = EXCLUDED.%s", column, column)
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(w.opts.ConflictColumns, ", "),
			strings.Join(clauses, ", "))
	}
	return query
}

// createTableStatement derives a CREATE TABLE IF NOT EXISTS from the first
// record's value types.
func (w *PostgresWriter) createTableStatement(record core.Record) string {
	definitions := make([]string, 0, len(w.columns))
	for _, column := range w.columns {
		definitions = append(definitions, fmt.Sprintf("%s %s", column, inferSQLType(record[column])))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		w.opts.Table, strings.Join(definitions, ", "))
}

// inferSQLType maps a record value onto a PostgreSQL column type, defaulting
// to TEXT.
func inferSQLType(value interface{}) string {
	switch value.(type) {
	case bool:
		return "BOOLEAN"
	case int, int8, int16, int32, int64:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case time.Time:
		return "TIMESTAMP"
	case []byte:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

// toSQLValue converts record values to driver-compatible types; anything the
// driver cannot take directly is rendered as text.
func toSQLValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil, bool, int64, float64, string, []byte, time.Time:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
