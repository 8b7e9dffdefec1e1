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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/refinelab/refinery"
)

// Package readers provides core.DataSource implementations that feed
// records into a Refinery processor: CSV, line-delimited JSON, PostgreSQL,
// MongoDB, and S3 objects.

// CSVReaderError wraps structured error information for the CSV reader.
type CSVReaderError struct {
	Op  string
	Err error
}

func (e *CSVReaderError) Error() string {
	return fmt.Sprintf("csv reader %s: %v", e.Op, e.Err)
}

func (e *CSVReaderError) Unwrap() error {
	return e.Err
}

// CSVReaderOptions configures the CSV reader.
type CSVReaderOptions struct {
	Comma      rune
	Comment    rune
	HasHeaders bool
	TrimSpace  bool
	InferTypes bool
}

// CSVOption allows functional customization of CSVReader.
type CSVOption func(*CSVReaderOptions)

// WithCSVComma sets the field delimiter.
func WithCSVComma(r rune) CSVOption {
	return func(o *CSVReaderOptions) { o.Comma = r }
}

// WithCSVComment sets the comment character; lines starting with it are ignored.
func WithCSVComment(r rune) CSVOption {
	return func(o *CSVReaderOptions) { o.Comment = r }
}

// WithCSVHasHeaders controls whether the first row names the fields.
// Without headers, fields are named col_0, col_1, ...
func WithCSVHasHeaders(hasHeaders bool) CSVOption {
	return func(o *CSVReaderOptions) { o.HasHeaders = hasHeaders }
}

// WithCSVInferTypes controls numeric/bool inference; when disabled every
// value stays a string.
func WithCSVInferTypes(infer bool) CSVOption {
	return func(o *CSVReaderOptions) { o.InferTypes = infer }
}

// CSVReader implements refinery.DataSource for CSV input. Empty cells
// become nil so operations see them as absent-like values rather than
// empty strings.
type CSVReader struct {
	reader  *csv.Reader
	headers []string
	closer  io.Closer
	opts    CSVReaderOptions
}

// NewCSVReader creates a CSVReader with default or overridden options.
func NewCSVReader(r io.ReadCloser, options ...CSVOption) (*CSVReader, error) {
	opts := CSVReaderOptions{
		Comma:      ',',
		HasHeaders: true,
		TrimSpace:  true,
		InferTypes: true,
	}
	for _, opt := range options {
		opt(&opts)
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Comma
	cr.Comment = opts.Comment
	cr.TrimLeadingSpace = opts.TrimSpace

	reader := &CSVReader{reader: cr, closer: r, opts: opts}

	if opts.HasHeaders {
		headers, err := cr.Read()
		if err != nil {
			return nil, &CSVReaderError{Op: "read_headers", Err: err}
		}
		reader.headers = headers
	}
	return reader, nil
}

// Read implements the DataSource interface.
func (c *CSVReader) Read(ctx context.Context) (refinery.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &CSVReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	row, err := c.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &CSVReaderError{Op: "read_record", Err: err}
	}

	record := make(refinery.Record, len(row))
	for i, raw := range row {
		record[c.fieldName(i)] = c.cell(raw)
	}
	return record, nil
}

// Close implements the DataSource interface.
func (c *CSVReader) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// fieldName resolves the record key for column i.
func (c *CSVReader) fieldName(i int) string {
	if i < len(c.headers) {
		return c.headers[i]
	}
	return "col_" + strconv.Itoa(i)
}

// cell converts one raw CSV value into a record value.
func (c *CSVReader) cell(raw string) interface{} {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	if !c.opts.InferTypes {
		return value
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
