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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/refinelab/refinery/core"
)

// Package writers provides core.ResultSink implementations consuming
// processor results: a JSONL audit log, CSV and Parquet files of refined
// records.

// AuditWriter implements core.ResultSink as a line-delimited JSON audit
// log. Each line carries the final record, the accumulated error messages,
// and one status per configured operation, so failures can be attributed
// after the fact.
type AuditWriter struct {
	writer *bufio.Writer
	closer io.Closer
}

// auditEntry is the serialized form of one result.
type auditEntry struct {
	Record   core.Record   `json:"record"`
	Errors   []string      `json:"errors"`
	Statuses []core.Status `json:"statuses"`
}

// NewAuditWriter creates an audit writer over the given destination.
func NewAuditWriter(w io.WriteCloser) *AuditWriter {
	return &AuditWriter{
		writer: bufio.NewWriter(w),
		closer: w,
	}
}

// Write implements the ResultSink interface.
func (a *AuditWriter) Write(ctx context.Context, result core.Result) error {
	entry := auditEntry{
		Record:   result.Record,
		Errors:   result.ErrorStrings(),
		Statuses: result.Statuses,
	}
	if entry.Statuses == nil {
		entry.Statuses = []core.Status{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit writer marshal: %w", err)
	}
	if _, err := a.writer.Write(data); err != nil {
		return fmt.Errorf("audit writer write: %w", err)
	}
	if err := a.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("audit writer write: %w", err)
	}
	return nil
}

// Flush implements the ResultSink interface.
func (a *AuditWriter) Flush() error {
	return a.writer.Flush()
}

// Close implements the ResultSink interface.
func (a *AuditWriter) Close() error {
	if err := a.writer.Flush(); err != nil {
		return err
	}
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
