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
	"context"
	"fmt"
	"io"

	"github.com/refinelab/refinery/core"
)

// ProcessorBuilder provides a fluent API for constructing stream processors.
// Use NewProcessor() to create a builder, then chain From, Apply, and To.
type ProcessorBuilder struct {
	processor *StreamProcessor
}

// NewProcessor creates a new ProcessorBuilder.
func NewProcessor() *ProcessorBuilder {
	return &ProcessorBuilder{
		processor: &StreamProcessor{
			operations: make([]Operation, 0),
		},
	}
}

// From sets the DataSource the processor pulls records from.
// Returns the builder for chaining.
func (pb *ProcessorBuilder) From(source DataSource) *ProcessorBuilder {
	pb.processor.source = source
	return pb
}

// Apply appends operations to the processor's sequence. Operations run in
// the order they were added, each receiving the record produced by the
// previous one.
// Returns the builder for chaining.
func (pb *ProcessorBuilder) Apply(operations ...Operation) *ProcessorBuilder {
	pb.processor.operations = append(pb.processor.operations, operations...)
	return pb
}

// ApplyFunc appends a function operation to the processor's sequence.
// Returns the builder for chaining.
func (pb *ProcessorBuilder) ApplyFunc(fn func(ctx context.Context, record Record) Outcome) *ProcessorBuilder {
	return pb.Apply(OperationFunc(fn))
}

// To sets the ResultSink consumed by Run. Optional: a processor driven
// through Next needs no sink.
// Returns the builder for chaining.
func (pb *ProcessorBuilder) To(sink ResultSink) *ProcessorBuilder {
	pb.processor.sink = sink
	return pb
}

// Build validates and constructs the StreamProcessor.
// Returns an error if no data source was configured.
func (pb *ProcessorBuilder) Build() (*StreamProcessor, error) {
	if pb.processor.source == nil {
		return nil, fmt.Errorf("processor requires a data source")
	}
	return pb.processor, nil
}

// StreamProcessor applies an ordered operation sequence to a stream of
// records, one record at a time.
//
// The processor holds no state across records: every record is processed
// independently and errors or statuses never leak from one record to the
// next. Results are produced lazily; a caller that stops pulling simply
// leaves the rest of the stream unread.
type StreamProcessor struct {
	source     DataSource
	operations []Operation
	sink       ResultSink
}

// Next pulls one record from the source, applies every operation in order,
// and returns the aggregated result. Returns io.EOF once the source is
// drained. Stream-level problems (source read failures, cancellation) are
// returned as errors; per-record operation failures are data inside the
// result.
func (p *StreamProcessor) Next(ctx context.Context) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	record, err := p.source.Read(ctx)
	if err == io.EOF {
		return Result{}, io.EOF
	}
	if err != nil {
		return Result{}, fmt.Errorf("processor read: %w", err)
	}

	return p.process(ctx, record), nil
}

// Run drains the source, writing every result to the configured sink.
// The source is closed and the sink flushed and closed when Run returns;
// a cleanup failure surfaces as Run's error when the loop itself ended
// cleanly, so a sink that cannot flush its final buffer is not reported
// as success. A record-level operation failure never stops the run; only
// stream-level errors (read, write, cancellation) do.
func (p *StreamProcessor) Run(ctx context.Context) (err error) {
	if p.sink == nil {
		return fmt.Errorf("processor requires a result sink to run")
	}

	defer func() {
		closeErr := p.source.Close()
		flushErr := p.sink.Flush()
		sinkErr := p.sink.Close()
		if err != nil {
			return
		}
		switch {
		case closeErr != nil:
			err = fmt.Errorf("processor close source: %w", closeErr)
		case flushErr != nil:
			err = fmt.Errorf("processor flush sink: %w", flushErr)
		case sinkErr != nil:
			err = fmt.Errorf("processor close sink: %w", sinkErr)
		}
	}()

	for {
		result, err := p.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.sink.Write(ctx, result); err != nil {
			return fmt.Errorf("processor write: %w", err)
		}
	}
}

// Close releases the underlying source. Callers driving the processor
// through Next use this once they stop pulling.
func (p *StreamProcessor) Close() error {
	return p.source.Close()
}

// process threads one record through the operation sequence, concatenating
// errors and collecting one status per configured operation.
func (p *StreamProcessor) process(ctx context.Context, record Record) Result {
	result := Result{
		Record:   record,
		Statuses: make([]core.Status, 0, len(p.operations)),
	}

	aborted := false
	for _, op := range p.operations {
		if aborted {
			// Unapplied tail after an aborting failure still gets a status
			// entry, keeping one status per configured operation.
			result.Statuses = append(result.Statuses, core.StatusSkipped)
			continue
		}

		outcome := op.Apply(ctx, result.Record)
		if outcome.Record != nil {
			result.Record = outcome.Record
		}
		result.Errors = append(result.Errors, outcome.Errors...)
		result.Statuses = append(result.Statuses, outcome.Status)

		if outcome.Status == core.StatusFailure && abortsOnFailure(op) {
			aborted = true
		}
	}

	return result
}

// abortsOnFailure checks the optional core.Aborter hook.
func abortsOnFailure(op Operation) bool {
	if a, ok := op.(core.Aborter); ok {
		return a.AbortOnFailure()
	}
	return false
}
