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
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/refinelab/refinery/core"
)

// MongoReaderError provides structured error information for Mongo reader
// operations.
type MongoReaderError struct {
	Op  string // Operation that failed (e.g., "connect", "find", "decode")
	Err error
}

func (e *MongoReaderError) Error() string {
	return fmt.Sprintf("mongo reader %s: %v", e.Op, e.Err)
}

func (e *MongoReaderError) Unwrap() error {
	return e.Err
}

// MongoReaderOptions configures the Mongo reader.
type MongoReaderOptions struct {
	URI        string
	Database   string
	Collection string
	Filter     interface{} // Query filter; nil matches everything
	BatchSize  int32
	Limit      int64
}

// MongoOption represents a configuration function for the Mongo reader.
type MongoOption func(*MongoReaderOptions)

// WithMongoURI sets the connection URI.
func WithMongoURI(uri string) MongoOption {
	return func(o *MongoReaderOptions) { o.URI = uri }
}

// WithMongoCollection sets the database and collection to stream.
func WithMongoCollection(database, collection string) MongoOption {
	return func(o *MongoReaderOptions) {
		o.Database = database
		o.Collection = collection
	}
}

// WithMongoFilter sets the query filter.
func WithMongoFilter(filter interface{}) MongoOption {
	return func(o *MongoReaderOptions) { o.Filter = filter }
}

// WithMongoBatchSize sets the cursor batch size.
func WithMongoBatchSize(size int32) MongoOption {
	return func(o *MongoReaderOptions) { o.BatchSize = size }
}

// WithMongoLimit caps the number of documents streamed.
func WithMongoLimit(limit int64) MongoOption {
	return func(o *MongoReaderOptions) { o.Limit = limit }
}

// MongoReader implements core.DataSource for MongoDB collections. Documents
// stream through a server-side cursor; the find runs lazily on first Read.
type MongoReader struct {
	client *mongo.Client
	cursor *mongo.Cursor
	opts   MongoReaderOptions
}

// NewMongoReader validates options and connects to the server.
func NewMongoReader(ctx context.Context, opts ...MongoOption) (*MongoReader, error) {
	var cfg MongoReaderOptions
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URI == "" {
		return nil, &MongoReaderError{Op: "configure", Err: fmt.Errorf("URI is required")}
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, &MongoReaderError{Op: "configure", Err: fmt.Errorf("database and collection are required")}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, &MongoReaderError{Op: "connect", Err: err}
	}

	return &MongoReader{client: client, opts: cfg}, nil
}

// Read implements the DataSource interface.
func (m *MongoReader) Read(ctx context.Context) (core.Record, error) {
	if m.cursor == nil {
		filter := m.opts.Filter
		if filter == nil {
			filter = bson.D{}
		}
		findOpts := options.Find()
		if m.opts.BatchSize > 0 {
			findOpts.SetBatchSize(m.opts.BatchSize)
		}
		if m.opts.Limit > 0 {
			findOpts.SetLimit(m.opts.Limit)
		}

		collection := m.client.Database(m.opts.Database).Collection(m.opts.Collection)
		cursor, err := collection.Find(ctx, filter, findOpts)
		if err != nil {
			return nil, &MongoReaderError{Op: "find", Err: err}
		}
		m.cursor = cursor
	}

	if !m.cursor.Next(ctx) {
		if err := m.cursor.Err(); err != nil {
			return nil, &MongoReaderError{Op: "read", Err: err}
		}
		return nil, io.EOF
	}

	var document bson.M
	if err := m.cursor.Decode(&document); err != nil {
		return nil, &MongoReaderError{Op: "decode", Err: err}
	}

	record := make(core.Record, len(document))
	for key, value := range document {
		record[key] = normalizeBSONValue(value)
	}
	return record, nil
}

// Close implements the DataSource interface.
func (m *MongoReader) Close() error {
	ctx := context.Background()
	var firstErr error
	if m.cursor != nil {
		if err := m.cursor.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if m.client != nil {
		if err := m.client.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// normalizeBSONValue maps BSON driver types onto plain record values.
func normalizeBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time()
	case primitive.Decimal128:
		return v.String()
	case primitive.A:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeBSONValue(item)
		}
		return out
	case bson.M:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = normalizeBSONValue(item)
		}
		return out
	default:
		return value
	}
}
