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
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/refinelab/refinery/core"
)

// ParquetWriterError wraps Parquet-specific write errors with context about
// the operation.
type ParquetWriterError struct {
	Op  string // Operation that failed (e.g., "open_file", "schema", "append")
	Err error
}

func (e *ParquetWriterError) Error() string {
	return fmt.Sprintf("parquet writer %s: %v", e.Op, e.Err)
}

func (e *ParquetWriterError) Unwrap() error {
	return e.Err
}

// ParquetWriterOptions configures the Parquet sink.
type ParquetWriterOptions struct {
	BatchSize   int                  // Records buffered per row batch
	Compression compress.Compression // Column compression codec
	FieldOrder  []string             // Explicit column order; inferred otherwise
	Schema      *arrow.Schema        // Pre-defined schema (optional)
	OnlyRefined bool                 // Skip results with any failed operation
}

// ParquetOption represents a configuration function for ParquetWriterOptions.
type ParquetOption func(*ParquetWriterOptions)

// WithParquetBatchSize sets the records buffered before a batch is written.
func WithParquetBatchSize(size int) ParquetOption {
	return func(o *ParquetWriterOptions) { o.BatchSize = size }
}

// WithParquetCompression sets the compression codec.
func WithParquetCompression(c compress.Compression) ParquetOption {
	return func(o *ParquetWriterOptions) { o.Compression = c }
}

// WithParquetFieldOrder sets an explicit column order for schema inference.
func WithParquetFieldOrder(fields []string) ParquetOption {
	return func(o *ParquetWriterOptions) { o.FieldOrder = fields }
}

// WithParquetSchema supplies an explicit Arrow schema, disabling inference.
func WithParquetSchema(schema *arrow.Schema) ParquetOption {
	return func(o *ParquetWriterOptions) { o.Schema = schema }
}

// WithParquetOnlyRefined drops results carrying a failed operation.
func WithParquetOnlyRefined(only bool) ParquetOption {
	return func(o *ParquetWriterOptions) { o.OnlyRefined = only }
}

// ParquetWriter implements core.ResultSink, writing each result's final
// record as a row in a Parquet file. The Arrow schema is taken from options
// or inferred from the first buffered batch; later records must fit it.
type ParquetWriter struct {
	file    *os.File
	writer  *pqarrow.FileWriter
	schema  *arrow.Schema
	builder *array.RecordBuilder
	alloc   memory.Allocator
	buffer  []core.Record
	closed  bool
	opts    ParquetWriterOptions
}

// NewParquetWriter creates a Parquet sink writing to the given path.
func NewParquetWriter(path string, options ...ParquetOption) (*ParquetWriter, error) {
	opts := ParquetWriterOptions{
		BatchSize:   1024,
		Compression: compress.Codecs.Snappy,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.BatchSize <= 0 {
		return nil, &ParquetWriterError{Op: "configure", Err: fmt.Errorf("batch size must be positive")}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, &ParquetWriterError{Op: "open_file", Err: err}
	}

	return &ParquetWriter{
		file:   file,
		schema: opts.Schema,
		alloc:  memory.NewGoAllocator(),
		buffer: make([]core.Record, 0, opts.BatchSize),
		opts:   opts,
	}, nil
}

// Write implements the ResultSink interface.
func (p *ParquetWriter) Write(ctx context.Context, result core.Result) error {
	if p.closed {
		return &ParquetWriterError{Op: "write", Err: fmt.Errorf("writer is closed")}
	}
	if p.opts.OnlyRefined && result.Failed() {
		return nil
	}

	p.buffer = append(p.buffer, result.Record)
	if len(p.buffer) >= p.opts.BatchSize {
		return p.flushBatch()
	}
	return nil
}

// Flush implements the ResultSink interface.
func (p *ParquetWriter) Flush() error {
	if p.closed {
		return nil
	}
	return p.flushBatch()
}

// Close implements the ResultSink interface, writing any buffered rows and
// the file footer.
func (p *ParquetWriter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.flushBatch(); err != nil {
		p.file.Close()
		return err
	}
	if p.builder != nil {
		p.builder.Release()
	}
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			p.file.Close()
			return &ParquetWriterError{Op: "close", Err: err}
		}
	}
	return p.file.Close()
}

// flushBatch converts the buffered records into an Arrow record batch and
// hands it to the parquet writer.
func (p *ParquetWriter) flushBatch() error {
	if len(p.buffer) == 0 {
		return nil
	}

	if p.schema == nil {
		p.schema = inferSchema(p.buffer, p.opts.FieldOrder)
	}
	if p.writer == nil {
		props := parquet.NewWriterProperties(parquet.WithCompression(p.opts.Compression))
		writer, err := pqarrow.NewFileWriter(p.schema, p.file, props, pqarrow.DefaultWriterProps())
		if err != nil {
			return &ParquetWriterError{Op: "open_writer", Err: err}
		}
		p.writer = writer
		p.builder = array.NewRecordBuilder(p.alloc, p.schema)
	}

	for _, record := range p.buffer {
		for i, field := range p.schema.Fields() {
			if err := appendValue(p.builder.Field(i), record[field.Name]); err != nil {
				return &ParquetWriterError{Op: "append", Err: fmt.Errorf("field %s: %w", field.Name, err)}
			}
		}
	}

	batch := p.builder.NewRecord()
	defer batch.Release()

	if err := p.writer.Write(batch); err != nil {
		return &ParquetWriterError{Op: "write_batch", Err: err}
	}

	p.buffer = p.buffer[:0]
	return nil
}

// inferSchema derives an Arrow schema from a batch of records. Every field
// is nullable; the first non-nil value seen for a field decides its type,
// defaulting to string.
func inferSchema(records []core.Record, fieldOrder []string) *arrow.Schema {
	types := make(map[string]arrow.DataType)
	names := make([]string, 0)

	for _, record := range records {
		for field, value := range record {
			if _, seen := types[field]; !seen {
				types[field] = nil
				names = append(names, field)
			}
			if types[field] == nil && value != nil {
				types[field] = inferType(value)
			}
		}
	}

	if len(fieldOrder) > 0 {
		names = names[:0]
		for _, field := range fieldOrder {
			if _, seen := types[field]; seen {
				names = append(names, field)
			}
		}
	} else {
		sort.Strings(names)
	}

	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		dataType := types[name]
		if dataType == nil {
			dataType = arrow.BinaryTypes.String
		}
		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// inferType maps a record value onto an Arrow type.
func inferType(value interface{}) arrow.DataType {
	switch value.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case int, int8, int16, int32, int64:
		return arrow.PrimitiveTypes.Int64
	case float32, float64:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// appendValue appends one record value to its column builder, coercing
// where the value fits the column type.
func appendValue(builder array.Builder, value interface{}) error {
	if value == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("cannot write %T as boolean", value)
		}
		b.Append(v)
	case *array.Int64Builder:
		switch v := value.(type) {
		case int:
			b.Append(int64(v))
		case int8:
			b.Append(int64(v))
		case int16:
			b.Append(int64(v))
		case int32:
			b.Append(int64(v))
		case int64:
			b.Append(v)
		case float64:
			b.Append(int64(v))
		default:
			return fmt.Errorf("cannot write %T as int64", value)
		}
	case *array.Float64Builder:
		switch v := value.(type) {
		case float64:
			b.Append(v)
		case float32:
			b.Append(float64(v))
		case int:
			b.Append(float64(v))
		case int64:
			b.Append(float64(v))
		default:
			return fmt.Errorf("cannot write %T as float64", value)
		}
	case *array.StringBuilder:
		switch v := value.(type) {
		case string:
			b.Append(v)
		case time.Time:
			b.Append(v.Format(time.RFC3339))
		default:
			b.Append(fmt.Sprintf("%v", v))
		}
	default:
		return fmt.Errorf("unsupported column type %T", builder)
	}
	return nil
}
