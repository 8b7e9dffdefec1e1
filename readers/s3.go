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
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/refinelab/refinery/core"
)

// S3ReaderError provides structured error information for S3 reader
// operations.
type S3ReaderError struct {
	Op  string // Operation that failed (e.g., "list_objects", "get_object")
	Key string // Object key involved, if any
	Err error
}

func (e *S3ReaderError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 reader %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3ReaderOptions configures the S3 reader.
type S3ReaderOptions struct {
	Bucket         string
	Prefix         string // Key prefix filter
	Suffix         string // Key suffix filter (e.g., ".csv", ".jsonl")
	Region         string
	EndpointURL    string // Custom endpoint for S3-compatible services
	ForcePathStyle bool
	AccessKey      string // Static credentials; default chain when empty
	SecretKey      string
}

// S3Option represents a configuration function for the S3 reader.
type S3Option func(*S3ReaderOptions)

// WithS3Bucket sets the bucket to stream from.
func WithS3Bucket(bucket string) S3Option {
	return func(o *S3ReaderOptions) { o.Bucket = bucket }
}

// WithS3Prefix filters object keys by prefix.
func WithS3Prefix(prefix string) S3Option {
	return func(o *S3ReaderOptions) { o.Prefix = prefix }
}

// WithS3Suffix filters object keys by suffix.
func WithS3Suffix(suffix string) S3Option {
	return func(o *S3ReaderOptions) { o.Suffix = suffix }
}

// WithS3Region sets the AWS region.
func WithS3Region(region string) S3Option {
	return func(o *S3ReaderOptions) { o.Region = region }
}

// WithS3Endpoint sets a custom endpoint and path-style addressing, for
// S3-compatible object stores.
func WithS3Endpoint(endpoint string, forcePathStyle bool) S3Option {
	return func(o *S3ReaderOptions) {
		o.EndpointURL = endpoint
		o.ForcePathStyle = forcePathStyle
	}
}

// WithS3Credentials sets static credentials, bypassing the default chain.
func WithS3Credentials(accessKey, secretKey string) S3Option {
	return func(o *S3ReaderOptions) {
		o.AccessKey = accessKey
		o.SecretKey = secretKey
	}
}

// S3Reader implements core.DataSource over a set of S3 objects. Matching
// objects are listed up front and streamed one at a time; each object is
// decoded as CSV or line-delimited JSON based on its key extension.
type S3Reader struct {
	client  *s3.Client
	bucket  string
	keys    []string
	next    int
	current core.DataSource
}

// NewS3Reader creates the client and lists the matching objects.
func NewS3Reader(ctx context.Context, options ...S3Option) (*S3Reader, error) {
	var opts S3ReaderOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "configure", Err: fmt.Errorf("bucket is required")}
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &S3ReaderError{Op: "load_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	reader := &S3Reader{client: client, bucket: opts.Bucket}
	if err := reader.listKeys(ctx, opts); err != nil {
		return nil, err
	}
	return reader, nil
}

// listKeys collects every matching object key, following pagination.
func (r *S3Reader) listKeys(ctx context.Context, opts S3ReaderOptions) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(opts.Bucket),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return &S3ReaderError{Op: "list_objects", Err: err}
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if opts.Suffix != "" && !strings.HasSuffix(key, opts.Suffix) {
				continue
			}
			r.keys = append(r.keys, key)
		}
	}
	return nil
}

// Read implements the DataSource interface, draining each object before
// moving to the next.
func (r *S3Reader) Read(ctx context.Context) (core.Record, error) {
	for {
		if r.current == nil {
			if r.next >= len(r.keys) {
				return nil, io.EOF
			}
			source, err := r.openObject(ctx, r.keys[r.next])
			if err != nil {
				return nil, err
			}
			r.next++
			r.current = source
		}

		record, err := r.current.Read(ctx)
		if err == io.EOF {
			r.current.Close()
			r.current = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		return record, nil
	}
}

// openObject fetches one object and wraps its body in the decoder matching
// the key extension.
func (r *S3Reader) openObject(ctx context.Context, key string) (core.DataSource, error) {
	output, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &S3ReaderError{Op: "get_object", Key: key, Err: err}
	}

	if strings.HasSuffix(key, ".csv") {
		source, err := NewCSVReader(output.Body)
		if err != nil {
			output.Body.Close()
			return nil, &S3ReaderError{Op: "open_csv", Key: key, Err: err}
		}
		return source, nil
	}
	return NewJSONReader(output.Body), nil
}

// Close implements the DataSource interface.
func (r *S3Reader) Close() error {
	if r.current != nil {
		err := r.current.Close()
		r.current = nil
		return err
	}
	return nil
}
