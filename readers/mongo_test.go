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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewMongoReader_RequiresURI(t *testing.T) {
	_, err := NewMongoReader(context.Background(),
		WithMongoCollection("db", "records"),
	)
	require.Error(t, err)

	var readerErr *MongoReaderError
	require.ErrorAs(t, err, &readerErr)
	assert.Equal(t, "configure", readerErr.Op)
}

func TestNewMongoReader_RequiresCollection(t *testing.T) {
	_, err := NewMongoReader(context.Background(),
		WithMongoURI("mongodb://localhost:27017"),
	)
	require.Error(t, err)

	var readerErr *MongoReaderError
	require.ErrorAs(t, err, &readerErr)
	assert.Equal(t, "configure", readerErr.Op)
}

func TestNormalizeBSONValue(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, id.Hex(), normalizeBSONValue(id))

	when := time.Date(2024, 10, 26, 14, 0, 0, 0, time.UTC)
	dt := primitive.NewDateTimeFromTime(when)
	converted, isTime := normalizeBSONValue(dt).(time.Time)
	require.True(t, isTime)
	assert.True(t, when.Equal(converted))

	nested := bson.M{"inner": primitive.A{id, "x"}}
	convertedMap, ok := normalizeBSONValue(nested).(map[string]interface{})
	require.True(t, ok)
	items, ok := convertedMap["inner"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, id.Hex(), items[0])
	assert.Equal(t, "x", items[1])

	assert.Equal(t, "plain", normalizeBSONValue("plain"))
}
