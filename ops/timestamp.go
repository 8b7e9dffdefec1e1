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
	"strings"
	"time"

	"github.com/refinelab/refinery/core"
)

// timestampParser normalizes a string field to a time.Time.
type timestampParser struct {
	field  string
	layout string
	cfg    settings
	def    time.Time
}

// ParseTimestamp creates an operation that parses the named string field
// into a time.Time using the given layout (time.Parse reference format).
// Values that are already time.Time pass through unchanged. Field absence
// follows the configured policy; a WithDefault value must be a time.Time or
// a string parseable with the layout. Unparseable values are a failure and
// the field is left unmodified.
func ParseTimestamp(field, layout string, options ...Option) (core.Operation, error) {
	if field == "" {
		return nil, core.NewConfigError("timestamp", "field name must not be empty")
	}
	if layout == "" {
		return nil, core.NewConfigError("timestamp", "layout must not be empty for field %q", field)
	}

	cfg, err := applyOptions(options)
	if err != nil {
		return nil, &core.ConfigError{Component: "timestamp", Err: err}
	}

	op := &timestampParser{field: field, layout: layout, cfg: cfg}
	if cfg.policy == missingDefault {
		switch d := cfg.def.(type) {
		case time.Time:
			op.def = d
		case string:
			parsed, err := time.Parse(layout, d)
			if err != nil {
				return nil, core.NewConfigError("timestamp", "default %q for field %q does not match layout %q", d, field, layout)
			}
			op.def = parsed
		default:
			return nil, core.NewConfigError("timestamp", "default %v for field %q is not a timestamp", cfg.def, field)
		}
	}
	return op, nil
}

// Apply implements core.Operation.
func (t *timestampParser) Apply(ctx context.Context, record core.Record) core.Outcome {
	value, present := record[t.field]
	if !present || value == nil {
		switch t.cfg.policy {
		case missingDefault:
			record[t.field] = t.def
			return core.Success(record)
		case missingIgnore:
			return core.Skip(record)
		default:
			return core.Fail(record, core.NewMissingField(t.field))
		}
	}

	switch v := value.(type) {
	case time.Time:
		return core.Success(record)
	case string:
		parsed, err := time.Parse(t.layout, strings.TrimSpace(v))
		if err != nil {
			return core.Fail(record, core.NewInvalidValue(t.field, value))
		}
		record[t.field] = parsed
		return core.Success(record)
	default:
		return core.Fail(record, core.NewInvalidValue(t.field, value))
	}
}
