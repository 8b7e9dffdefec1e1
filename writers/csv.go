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
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/refinelab/refinery/core"
)

// CSVWriterError wraps structured error information for the CSV sink.
type CSVWriterError struct {
	Op  string
	Err error
}

func (e *CSVWriterError) Error() string {
	return fmt.Sprintf("csv writer %s: %v", e.Op, e.Err)
}

func (e *CSVWriterError) Unwrap() error {
	return e.Err
}

// CSVWriterOptions configures the CSV sink.
type CSVWriterOptions struct {
	Headers      []string // Explicit column order; inferred from the first record when empty
	Comma        rune
	WriteHeader  bool
	OnlyRefined  bool   // Skip results with any failed operation
	MissingValue string // Cell written for absent/nil fields
}

// CSVWriterOption allows functional customization of CSVWriter.
type CSVWriterOption func(*CSVWriterOptions)

// WithHeaders sets an explicit column order.
func WithHeaders(headers []string) CSVWriterOption {
	return func(o *CSVWriterOptions) { o.Headers = headers }
}

// WithComma sets the field delimiter.
func WithComma(r rune) CSVWriterOption {
	return func(o *CSVWriterOptions) { o.Comma = r }
}

// WithWriteHeader controls whether a header row is written.
func WithWriteHeader(write bool) CSVWriterOption {
	return func(o *CSVWriterOptions) { o.WriteHeader = write }
}

// WithOnlyRefined drops results carrying a failed operation, so the file
// holds only cleanly refined records. The audit trail for the dropped
// records lives in whatever audit sink runs alongside.
func WithOnlyRefined(only bool) CSVWriterOption {
	return func(o *CSVWriterOptions) { o.OnlyRefined = only }
}

// CSVWriter implements core.ResultSink, flattening each result's final
// record into a CSV row.
type CSVWriter struct {
	writer  *csv.Writer
	closer  io.Closer
	headers []string
	wrote   bool
	opts    CSVWriterOptions
}

// NewCSVWriter creates a CSV sink with default or overridden options.
func NewCSVWriter(w io.WriteCloser, options ...CSVWriterOption) (*CSVWriter, error) {
	opts := CSVWriterOptions{
		Comma:       ',',
		WriteHeader: true,
	}
	for _, opt := range options {
		opt(&opts)
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.Comma

	return &CSVWriter{
		writer:  cw,
		closer:  w,
		headers: opts.Headers,
		opts:    opts,
	}, nil
}

// Write implements the ResultSink interface.
func (c *CSVWriter) Write(ctx context.Context, result core.Result) error {
	if c.opts.OnlyRefined && result.Failed() {
		return nil
	}

	record := result.Record
	if c.headers == nil {
		c.headers = inferHeaders(record)
	}

	if c.opts.WriteHeader && !c.wrote {
		if err := c.writer.Write(c.headers); err != nil {
			return &CSVWriterError{Op: "write_header", Err: err}
		}
	}
	c.wrote = true

	row := make([]string, len(c.headers))
	for i, header := range c.headers {
		row[i] = c.formatValue(record[header])
	}
	if err := c.writer.Write(row); err != nil {
		return &CSVWriterError{Op: "write_record", Err: err}
	}
	return nil
}

// Flush implements the ResultSink interface.
func (c *CSVWriter) Flush() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &CSVWriterError{Op: "flush", Err: err}
	}
	return nil
}

// Close implements the ResultSink interface.
func (c *CSVWriter) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// inferHeaders derives a stable column order from a record's field names.
func inferHeaders(record core.Record) []string {
	headers := make([]string, 0, len(record))
	for field := range record {
		headers = append(headers, field)
	}
	sort.Strings(headers)
	return headers
}

// formatValue renders one record value as a CSV cell.
func (c *CSVWriter) formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return c.opts.MissingValue
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
