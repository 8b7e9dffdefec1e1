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

package readers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/refinelab/refinery/core"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresReaderError provides structured error information for Postgres
// reader operations.
type PostgresReaderError struct {
	Op  string // Operation that failed (e.g., "connect", "query", "scan")
	Err error
}

func (e *PostgresReaderError) Error() string {
	return fmt.Sprintf("postgres reader %s: %v", e.Op, e.Err)
}

func (e *PostgresReaderError) Unwrap() error {
	return e.Err
}

// PostgresReaderOptions configures the Postgres reader.
type PostgresReaderOptions struct {
	DSN             string        // Connection string
	Query           string        // SQL query streamed as records
	Params          []interface{} // Optional query parameters
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresOption represents a configuration function for the Postgres reader.
type PostgresOption func(*PostgresReaderOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresOption {
	return func(o *PostgresReaderOptions) { o.DSN = dsn }
}

// WithPostgresQuery sets the SQL query and optional parameters.
func WithPostgresQuery(query string, params ...interface{}) PostgresOption {
	return func(o *PostgresReaderOptions) {
		o.Query = query
		o.Params = params
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int, maxLifetime time.Duration) PostgresOption {
	return func(o *PostgresReaderOptions) {
		o.MaxOpenConns = maxOpen
		o.MaxIdleConns = maxIdle
		o.ConnMaxLifetime = maxLifetime
	}
}

// PostgresReader implements core.DataSource for PostgreSQL query results.
// The query is executed on the first Read and rows stream one record at a
// time.
type PostgresReader struct {
	db      *sql.DB
	rows    *sql.Rows
	columns []string
	opts    PostgresReaderOptions
}

// NewPostgresReader validates options and opens the database handle. The
// query itself runs lazily on the first Read.
func NewPostgresReader(options ...PostgresOption) (*PostgresReader, error) {
	var opts PostgresReaderOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.DSN == "" {
		return nil, &PostgresReaderError{Op: "configure", Err: fmt.Errorf("DSN is required")}
	}
	if opts.Query == "" {
		return nil, &PostgresReaderError{Op: "configure", Err: fmt.Errorf("query is required")}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresReaderError{Op: "connect", Err: err}
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

	return &PostgresReader{db: db, opts: opts}, nil
}

// Read implements the DataSource interface.
func (p *PostgresReader) Read(ctx context.Context) (core.Record, error) {
	if p.rows == nil {
		rows, err := p.db.QueryContext(ctx, p.opts.Query, p.opts.Params...)
		if err != nil {
			return nil, &PostgresReaderError{Op: "query", Err: err}
		}
		columns, err := rows.Columns()
		if err != nil {
			rows.Close()
			return nil, &PostgresReaderError{Op: "columns", Err: err}
		}
		p.rows = rows
		p.columns = columns
	}

	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, &PostgresReaderError{Op: "read", Err: err}
		}
		return nil, io.EOF
	}

	values := make([]interface{}, len(p.columns))
	pointers := make([]interface{}, len(p.columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := p.rows.Scan(pointers...); err != nil {
		return nil, &PostgresReaderError{Op: "scan", Err: err}
	}

	record := make(core.Record, len(p.columns))
	for i, column := range p.columns {
		record[column] = normalizeSQLValue(values[i])
	}
	return record, nil
}

// Close implements the DataSource interface.
func (p *PostgresReader) Close() error {
	var firstErr error
	if p.rows != nil {
		if err := p.rows.Close(); err != nil {
			firstErr = err
		}
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// normalizeSQLValue maps driver values to record values; byte slices become
// strings since lib/pq returns text columns as []byte.
func normalizeSQLValue(value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
