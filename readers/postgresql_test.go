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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresReader_RequiresDSN(t *testing.T) {
	_, err := NewPostgresReader(WithPostgresQuery("SELECT 1"))
	require.Error(t, err)

	var readerErr *PostgresReaderError
	require.ErrorAs(t, err, &readerErr)
	assert.Equal(t, "configure", readerErr.Op)
}

func TestNewPostgresReader_RequiresQuery(t *testing.T) {
	_, err := NewPostgresReader(WithPostgresDSN("postgres://localhost/test"))
	require.Error(t, err)

	var readerErr *PostgresReaderError
	require.ErrorAs(t, err, &readerErr)
	assert.Equal(t, "configure", readerErr.Op)
}

func TestNewPostgresReader_ValidConfig(t *testing.T) {
	// sql.Open does not dial, so construction succeeds without a server.
	reader, err := NewPostgresReader(
		WithPostgresDSN("postgres://localhost/test?sslmode=disable"),
		WithPostgresQuery("SELECT id, amount FROM orders WHERE id > $1", 100),
		WithPostgresConnectionPool(4, 2, time.Minute),
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, amount FROM orders WHERE id > $1", reader.opts.Query)
	assert.Equal(t, []interface{}{100}, reader.opts.Params)
	require.NoError(t, reader.Close())
}

func TestNormalizeSQLValue(t *testing.T) {
	assert.Equal(t, "text", normalizeSQLValue([]byte("text")))
	assert.Equal(t, int64(5), normalizeSQLValue(int64(5)))
	assert.Nil(t, normalizeSQLValue(nil))
}
