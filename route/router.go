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

package route

import (
	"context"
	"fmt"

	"github.com/refinelab/refinery/core"
)

// Package route dispatches records to per-type operation sequences.
//
// Heterogeneous streams carry a type discriminator field; a TypeRouter maps
// each discriminator value to its own operation list, so one processor can
// refine a mixed stream. The router is itself a core.Operation and plugs
// into a processor like any other step.

// DefaultTypeField is the record field consulted for the type discriminator
// unless overridden with WithTypeField.
const DefaultTypeField = "_type"

// UnknownTypeError reports a record whose type discriminator is absent or
// has no registered operation sequence.
type UnknownTypeError struct {
	Type string
}

// Error returns the error string for UnknownTypeError.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unrecognized record type %q", e.Type)
}

// TypeRouter routes each record to the operation sequence registered for
// its type. Registration happens once at setup; routing is read-only and
// stateless across records.
type TypeRouter struct {
	typeField   string
	statusField string
	errorsField string
	routes      map[string][]core.Operation
}

// RouterOption configures a TypeRouter at construction time.
type RouterOption func(*TypeRouter)

// WithTypeField overrides the record field holding the type discriminator.
func WithTypeField(field string) RouterOption {
	return func(r *TypeRouter) {
		r.typeField = field
	}
}

// WithAnnotation makes the router stamp the aggregate status and the error
// messages into the record itself under the given fields, so downstream
// sinks see the verdict without consulting the outcome.
func WithAnnotation(statusField, errorsField string) RouterOption {
	return func(r *TypeRouter) {
		r.statusField = statusField
		r.errorsField = errorsField
	}
}

// NewTypeRouter creates a TypeRouter with default or overridden options.
func NewTypeRouter(options ...RouterOption) *TypeRouter {
	router := &TypeRouter{
		typeField: DefaultTypeField,
		routes:    make(map[string][]core.Operation),
	}
	for _, opt := range options {
		opt(router)
	}
	return router
}

// Register binds an operation sequence to a record type. Registering the
// same type twice is a configuration error.
func (r *TypeRouter) Register(recordType string, operations ...core.Operation) error {
	if recordType == "" {
		return core.NewConfigError("router", "record type must not be empty")
	}
	if _, exists := r.routes[recordType]; exists {
		return core.NewConfigError("router", "record type %q already registered", recordType)
	}
	r.routes[recordType] = operations
	return nil
}

// Apply implements core.Operation. The record's discriminator selects the
// registered sequence; its operations run in order with the record threaded
// through, and their errors are concatenated. A missing or unregistered
// type is a failure, with the record passed through unmodified.
func (r *TypeRouter) Apply(ctx context.Context, record core.Record) core.Outcome {
	raw := record[r.typeField]
	recordType, _ := raw.(string)

	operations, known := r.routes[recordType]
	if recordType == "" || !known {
		label := recordType
		if label == "" && raw != nil {
			// Non-string discriminators still get named in the error.
			label = fmt.Sprintf("%v", raw)
		}
		outcome := core.Fail(record, &UnknownTypeError{Type: label})
		r.annotate(record, outcome.Status, outcome.Errors)
		return outcome
	}

	current := record
	var errs []error
	applied := 0
	skipped := 0
	for _, op := range operations {
		outcome := op.Apply(ctx, current)
		if outcome.Record != nil {
			current = outcome.Record
		}
		errs = append(errs, outcome.Errors...)
		applied++
		if outcome.Status == core.StatusSkipped {
			skipped++
		}
	}

	status := core.StatusSuccess
	switch {
	case len(errs) > 0:
		status = core.StatusFailure
	case applied > 0 && skipped == applied:
		status = core.StatusSkipped
	}

	r.annotate(current, status, errs)
	return core.Outcome{Record: current, Errors: errs, Status: status}
}

// annotate stamps status and error messages into the record when the router
// was configured with annotation fields.
func (r *TypeRouter) annotate(record core.Record, status core.Status, errs []error) {
	if r.statusField == "" {
		return
	}
	record[r.statusField] = status.String()
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	record[r.errorsField] = messages
}
