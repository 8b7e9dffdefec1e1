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

package refinery

import (
	"github.com/refinelab/refinery/core"
)

// Package refinery provides a streaming, interface-driven record-refinement
// library for Go.
//
// A stream of records (field-name to value mappings) passes through an
// ordered sequence of configured operations, each of which may mutate
// fields, report validation errors, and report its own execution status.
// Failures are data: a record that trips an operation keeps flowing so all
// of its problems surface in one pass, and every record yields a result
// carrying the final record, the full error list, and one status per
// operation for after-the-fact audit.
//
// Core concepts:
//   - Record: one unit of structured data flowing through the processor.
//   - Operation: a configured, reusable transformation or validation step
//     (see the ops package for the shipped set).
//   - DataSource: streaming record input (CSV, JSONL, PostgreSQL, MongoDB,
//     S3 implementations live in the readers package).
//   - ResultSink: per-record result output (audit JSONL, CSV, Parquet
//     implementations live in the writers package).
//   - StreamProcessor: sequences operations over a stream of records,
//     lazily, one result per input record.
//
// Example usage:
//
//	amount, err := ops.NormalizeNumber("amount")
//	if err != nil { log.Fatal(err) }
//	proc, err := refinery.NewProcessor().
//		From(reader).
//		Apply(amount).
//		To(auditWriter).
//		Build()
//	if err != nil { log.Fatal(err) }
//	if err := proc.Run(context.Background()); err != nil { log.Fatal(err) }

// Record is re-exported from core; each record is a map from field names to
// values, supporting heterogeneous data.
type Record = core.Record

// Operation is re-exported from core. See core.Operation.
type Operation = core.Operation

// OperationFunc is re-exported from core. See core.OperationFunc.
type OperationFunc = core.OperationFunc

// DataSource is re-exported from core. See core.DataSource.
type DataSource = core.DataSource

// ResultSink is re-exported from core. See core.ResultSink.
type ResultSink = core.ResultSink

// Result is re-exported from core. See core.Result.
type Result = core.Result

// Outcome is re-exported from core. See core.Outcome.
type Outcome = core.Outcome

// Status is re-exported from core, along with its values.
type Status = core.Status

const (
	StatusSuccess = core.StatusSuccess
	StatusFailure = core.StatusFailure
	StatusSkipped = core.StatusSkipped
)
