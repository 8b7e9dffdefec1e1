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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refinelab/refinery/core"
)

func TestNormalizeNumber_ValidValues(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  float64
	}{
		{"plain float string", "12.5", 12.5},
		{"comma decimal separator", "123,45", 123.45},
		{"currency noise", "123,45 EUR", 123.45},
		{"dollar prefix", "$ 99.90", 99.9},
		{"negative", "-42.0", -42.0},
		{"int", 7, 7.0},
		{"int64", int64(12), 12.0},
		{"already normalized", 12.5, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NormalizeNumber("amount")
			require.NoError(t, err)

			record := core.Record{"amount": tt.input}
			outcome := op.Apply(context.Background(), record)

			assert.Equal(t, core.StatusSuccess, outcome.Status)
			assert.Empty(t, outcome.Errors)
			assert.Equal(t, tt.want, outcome.Record["amount"])
		})
	}
}

func TestNormalizeNumber_Idempotent(t *testing.T) {
	op, err := NormalizeNumber("amount")
	require.NoError(t, err)
	ctx := context.Background()

	record := core.Record{"amount": "123,45 EUR"}
	first := op.Apply(ctx, record)
	require.Equal(t, core.StatusSuccess, first.Status)

	second := op.Apply(ctx, first.Record)
	assert.Equal(t, core.StatusSuccess, second.Status)
	assert.Equal(t, first.Record["amount"], second.Record["amount"])
}

func TestNormalizeNumber_InvalidValue(t *testing.T) {
	op, err := NormalizeNumber("total")
	require.NoError(t, err)

	record := core.Record{"total": "abc"}
	outcome := op.Apply(context.Background(), record)

	assert.Equal(t, core.StatusFailure, outcome.Status)
	require.Len(t, outcome.Errors, 1)
	assert.True(t, errors.Is(outcome.Errors[0], core.ErrInvalidValue))
	assert.Contains(t, outcome.Errors[0].Error(), "total")
	// Field left unmodified on failure.
	assert.Equal(t, "abc", outcome.Record["total"])
}

func TestNormalizeNumber_MissingRequired(t *testing.T) {
	op, err := NormalizeNumber("amount")
	require.NoError(t, err)

	outcome := op.Apply(context.Background(), core.Record{"other": 1})

	assert.Equal(t, core.StatusFailure, outcome.Status)
	require.Len(t, outcome.Errors, 1)
	assert.True(t, errors.Is(outcome.Errors[0], core.ErrMissingField))
	_, present := outcome.Record["amount"]
	assert.False(t, present)
}

func TestNormalizeNumber_MissingWithDefault(t *testing.T) {
	op, err := NormalizeNumber("price", WithDefault(0.0))
	require.NoError(t, err)

	outcome := op.Apply(context.Background(), core.Record{})
	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, 0.0, outcome.Record["price"])
}

func TestNormalizeNumber_NilTreatedAsMissing(t *testing.T) {
	op, err := NormalizeNumber("price", WithDefault(0.0))
	require.NoError(t, err)

	outcome := op.Apply(context.Background(), core.Record{"price": nil})
	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Equal(t, 0.0, outcome.Record["price"])
}

func TestNormalizeNumber_MissingIgnored(t *testing.T) {
	op, err := NormalizeNumber("price", Ignore())
	require.NoError(t, err)

	outcome := op.Apply(context.Background(), core.Record{})
	assert.Equal(t, core.StatusSkipped, outcome.Status)
	assert.Empty(t, outcome.Errors)
	_, present := outcome.Record["price"]
	assert.False(t, present)
}

func TestNormalizeNumber_IntDefaultCoerced(t *testing.T) {
	op, err := NormalizeNumber("price", WithDefault(5))
	require.NoError(t, err)

	outcome := op.Apply(context.Background(), core.Record{})
	assert.Equal(t, 5.0, outcome.Record["price"])
}

func TestNormalizeNumber_ConfigErrors(t *testing.T) {
	var cfgErr *core.ConfigError

	_, err := NormalizeNumber("")
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NormalizeNumber("price", WithDefault("not a number"))
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NormalizeNumber("price", WithDefault(0.0), Ignore())
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = NormalizeNumber("price", Required(), WithDefault(0.0))
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNormalizeNumber_StatelessAcrossRecords(t *testing.T) {
	op, err := NormalizeNumber("amount")
	require.NoError(t, err)
	ctx := context.Background()

	bad := op.Apply(ctx, core.Record{"amount": "abc"})
	require.Equal(t, core.StatusFailure, bad.Status)

	good := op.Apply(ctx, core.Record{"amount": "10"})
	assert.Equal(t, core.StatusSuccess, good.Status)
	assert.Empty(t, good.Errors)
}
