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
	"errors"
	"fmt"
)

// Package core error taxonomy.
//
// Per-record conditions (missing field, invalid value) travel inside
// outcomes as FieldError values; they never abort a stream. Configuration
// mistakes are ConfigError values returned from constructors and are the
// only fatal class.

// Sentinel errors classifying field-level conditions. Match with errors.Is.
var (
	// ErrMissingField marks a required field absent from the record.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidValue marks a field present but not coercible or not
	// conforming to the expected form.
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError describes a per-record field condition reported by an
// operation. It wraps one of the sentinel errors above.
type FieldError struct {
	Field string      // Field the operation was configured for
	Value interface{} // Offending value, nil for missing fields
	Err   error       // ErrMissingField or ErrInvalidValue
}

// Error returns a human-readable description naming the field and, for
// invalid values, the value itself.
func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("missing required field %q", e.Field)
	}
	return fmt.Sprintf("invalid value %q for field %q", fmt.Sprintf("%v", e.Value), e.Field)
}

// Unwrap returns the sentinel classifying this error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewMissingField reports a required field absent from a record.
func NewMissingField(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}

// NewInvalidValue reports a field whose value failed coercion or validation.
func NewInvalidValue(field string, value interface{}) error {
	return &FieldError{Field: field, Value: value, Err: ErrInvalidValue}
}

// ConfigError reports contradictory or incomplete operation configuration.
// It is a programmer error, surfaced at construction time and never deferred
// to per-record processing.
type ConfigError struct {
	Component string // Component being configured (e.g., "normalize", "router")
	Err       error  // Underlying description
}

// Error returns the error string for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration: %v", e.Component, e.Err)
}

// Unwrap returns the underlying error for ConfigError.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(component, format string, args ...interface{}) error {
	return &ConfigError{Component: component, Err: fmt.Errorf(format, args...)}
}
