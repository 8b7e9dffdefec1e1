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

package ops

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/refinelab/refinery/core"
)

// requireField validates that a field is present and non-empty.
type requireField struct {
	field string
}

// Require creates a validation operation that fails when the named field is
// absent, nil, or an empty string. The record is never modified.
func Require(field string) (core.Operation, error) {
	if field == "" {
		return nil, core.NewConfigError("require", "field name must not be empty")
	}
	return &requireField{field: field}, nil
}

// Apply implements core.Operation.
func (r *requireField) Apply(ctx context.Context, record core.Record) core.Outcome {
	value, present := record[r.field]
	if !present {
		return core.Fail(record, core.NewMissingField(r.field))
	}
	if isEmpty(value) {
		return core.Fail(record, core.NewInvalidValue(r.field, value))
	}
	return core.Success(record)
}

// matchField validates a field's textual form against a compiled pattern.
type matchField struct {
	field   string
	pattern *regexp.Regexp
}

// Match creates a validation operation that fails unless the named field is
// present and its value, rendered as text, matches the given regular
// expression. An unparsable pattern is a configuration error. The record is
// never modified.
func Match(field, pattern string) (core.Operation, error) {
	if field == "" {
		return nil, core.NewConfigError("match", "field name must not be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, core.NewConfigError("match", "pattern for field %q: %v", field, err)
	}
	return &matchField{field: field, pattern: re}, nil
}

// Apply implements core.Operation.
func (m *matchField) Apply(ctx context.Context, record core.Record) core.Outcome {
	value, present := record[m.field]
	if !present {
		return core.Fail(record, core.NewMissingField(m.field))
	}
	if !m.pattern.MatchString(fmt.Sprintf("%v", value)) {
		return core.Fail(record, core.NewInvalidValue(m.field, value))
	}
	return core.Success(record)
}

// isEmpty reports whether a present value counts as empty for validation.
func isEmpty(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
