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
	"regexp"
	"strconv"
	"strings"

	"github.com/refinelab/refinery/core"
)

// Package ops provides the shipped field operations for Refinery processors.
//
// Every operation is parameterized by field name (and policy) at
// construction; no field name is hard-coded in operation logic, so one
// operation type serves every field of its kind. Constructors validate
// their configuration and return a core.ConfigError for programmer
// mistakes; per-record conditions are always reported through outcomes.

// nonNumeric matches everything a numeric normalization strips before
// parsing: anything but digits, the decimal separators '.' and ',', and '-'.
var nonNumeric = regexp.MustCompile(`[^0-9.,-]`)

// numberNormalizer coerces a field to a canonical float64.
type numberNormalizer struct {
	field string
	cfg   settings
	def   float64
}

// NormalizeNumber creates an operation that normalizes the named field to a
// float64. String values are cleaned of currency symbols and other
// non-numeric characters, and a ',' decimal separator is standardized to
// '.' before parsing; numeric values pass through, so normalization is
// idempotent.
//
// Field absence (or a nil value) follows the configured policy: Required
// (the default) fails, WithDefault writes the default and succeeds, Ignore
// leaves the record untouched and reports a skip. A present value that
// cannot be coerced is a failure and the field is left unmodified.
func NormalizeNumber(field string, options ...Option) (core.Operation, error) {
	if field == "" {
		return nil, core.NewConfigError("normalize", "field name must not be empty")
	}

	cfg, err := applyOptions(options)
	if err != nil {
		return nil, &core.ConfigError{Component: "normalize", Err: err}
	}

	op := &numberNormalizer{field: field, cfg: cfg}
	if cfg.policy == missingDefault {
		def, ok := toFloat(cfg.def)
		if !ok {
			return nil, core.NewConfigError("normalize", "default %v for field %q is not numeric", cfg.def, field)
		}
		op.def = def
	}
	return op, nil
}

// Apply implements core.Operation.
func (n *numberNormalizer) Apply(ctx context.Context, record core.Record) core.Outcome {
	value, present := record[n.field]
	if !present || value == nil {
		switch n.cfg.policy {
		case missingDefault:
			record[n.field] = n.def
			return core.Success(record)
		case missingIgnore:
			return core.Skip(record)
		default:
			return core.Fail(record, core.NewMissingField(n.field))
		}
	}

	normalized, ok := toFloat(value)
	if !ok {
		return core.Fail(record, core.NewInvalidValue(n.field, value))
	}

	record[n.field] = normalized
	return core.Success(record)
}

// toFloat coerces a value to float64. Strings are cleaned of everything but
// digits, separators, and sign before parsing.
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		cleaned := nonNumeric.ReplaceAllString(v, "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
