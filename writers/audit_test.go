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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refinelab/refinery/core"
)

// mockWriteCloser collects written bytes with close tracking.
type mockWriteCloser struct {
	strings.Builder
	closed bool
}

func (m *mockWriteCloser) Close() error {
	m.closed = true
	return nil
}

func TestAuditWriter_BasicFunctionality(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewAuditWriter(mock)
	ctx := context.Background()

	results := []core.Result{
		{
			Record:   core.Record{"amount": 12.5},
			Statuses: []core.Status{core.StatusSuccess},
		},
		{
			Record:   core.Record{"total": "abc"},
			Errors:   []error{core.NewInvalidValue("total", "abc")},
			Statuses: []core.Status{core.StatusFailure},
		},
	}
	for _, result := range results {
		require.NoError(t, writer.Write(ctx, result))
	}
	require.NoError(t, writer.Close())
	assert.True(t, mock.closed)

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Record   map[string]interface{} `json:"record"`
		Errors   []string               `json:"errors"`
		Statuses []string               `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, 12.5, first.Record["amount"])
	assert.Empty(t, first.Errors)
	assert.Equal(t, []string{"success"}, first.Statuses)

	var second struct {
		Record   map[string]interface{} `json:"record"`
		Errors   []string               `json:"errors"`
		Statuses []string               `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "abc", second.Record["total"])
	require.Len(t, second.Errors, 1)
	assert.Contains(t, second.Errors[0], "invalid value")
	assert.Equal(t, []string{"failure"}, second.Statuses)
}

func TestAuditWriter_EmptyListsSerialized(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewAuditWriter(mock)

	require.NoError(t, writer.Write(context.Background(), core.Result{
		Record: core.Record{"a": 1},
	}))
	require.NoError(t, writer.Flush())

	// Error and status lists are always present, even when empty.
	line := strings.TrimSpace(mock.String())
	assert.Contains(t, line, `"errors":[]`)
	assert.Contains(t, line, `"statuses":[]`)
}
