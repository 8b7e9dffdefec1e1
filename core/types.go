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

package core

import (
	"context"
	"fmt"
)

// Package core defines the data model shared by every Refinery component:
// records, operations, and the outcome/status types that make per-record
// failures auditable data instead of control flow.

// Record represents a single data record flowing through a processor.
// Each record is a map from field names to values, supporting heterogeneous
// data. Field presence is never guaranteed; operations treat a missing field
// as a first-class state.
type Record map[string]interface{}

// Clone returns a shallow copy of the record. Values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Status describes the outcome of applying one operation to one record.
type Status uint8

const (
	// StatusSuccess indicates the operation completed and (if applicable)
	// wrote its result into the record.
	StatusSuccess Status = iota
	// StatusFailure indicates the operation could not complete; the outcome
	// carries at least one error and the operation's field is left untouched.
	StatusFailure
	// StatusSkipped indicates the operation deliberately wrote nothing, e.g.
	// an optional field was absent and no default is configured. A skip is
	// not an error.
	StatusSkipped
)

// String implements fmt.Stringer for Status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalJSON renders the status as its lowercase name so audit sinks
// serialize something readable.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Outcome is the result of applying one operation to one record: the
// (possibly mutated) record, the errors the operation reported, and its
// status. Named fields rather than a bare tuple so future audit fields can
// be added without breaking consumers.
type Outcome struct {
	Record Record
	Errors []error
	Status Status
}

// Success returns a successful outcome carrying the given record.
func Success(record Record) Outcome {
	return Outcome{Record: record, Status: StatusSuccess}
}

// Skip returns a skipped outcome carrying the given record.
func Skip(record Record) Outcome {
	return Outcome{Record: record, Status: StatusSkipped}
}

// Fail returns a failed outcome carrying the given record and errors.
// A failure always carries at least one error.
func Fail(record Record, errs ...error) Outcome {
	return Outcome{Record: record, Errors: errs, Status: StatusFailure}
}

// Result is the aggregate of one record passing through an entire operation
// sequence: the final record, every error in operation order, and one status
// per configured operation so audit tooling can attribute failures precisely.
type Result struct {
	Record   Record
	Errors   []error
	Statuses []Status
}

// Failed reports whether any operation in the sequence failed.
func (r Result) Failed() bool {
	for _, s := range r.Statuses {
		if s == StatusFailure {
			return true
		}
	}
	return false
}

// ErrorStrings renders the accumulated errors as human-readable messages,
// in operation order. Returns an empty (non-nil) slice when there were none.
func (r Result) ErrorStrings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		out = append(out, err.Error())
	}
	return out
}

// Operation is a configured, reusable transformation or validation step.
// Implementations are immutable after construction and stateless across
// invocations: applying one to many records must not leak state between
// them. Expected per-record conditions (missing field, invalid value) are
// reported through the outcome, never by panicking or returning out-of-band.
type Operation interface {
	// Apply runs the operation against a record. The returned outcome's
	// Record is the one the caller must thread to the next operation; an
	// implementation may mutate in place and return the same map.
	Apply(ctx context.Context, record Record) Outcome
}

// OperationFunc is a function adapter for the Operation interface.
// Allows ordinary functions to be used as operations.
type OperationFunc func(ctx context.Context, record Record) Outcome

// Apply implements the Operation interface for OperationFunc.
func (f OperationFunc) Apply(ctx context.Context, record Record) Outcome {
	return f(ctx, record)
}

// Aborter is an optional interface an Operation may implement to declare
// that a failure should stop the remaining operations for that record.
// The processor marks the unapplied operations as skipped so the status
// list keeps one entry per configured operation.
type Aborter interface {
	AbortOnFailure() bool
}

// DataSource defines the interface for record extraction.
// Implementations stream records from a source (e.g., CSV, JSONL,
// PostgreSQL, MongoDB, S3).
type DataSource interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Record, error)
	// Close releases any resources held by the data source.
	Close() error
}

// ResultSink defines the interface for consuming processing results.
// Implementations persist or audit per-record results (e.g., JSONL audit
// logs, CSV or Parquet files of refined records).
type ResultSink interface {
	// Write outputs a single result to the sink.
	Write(ctx context.Context, result Result) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the sink.
	Close() error
}
