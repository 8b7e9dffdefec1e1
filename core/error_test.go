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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldError_Missing(t *testing.T) {
	err := NewMissingField("amount")

	assert.True(t, errors.Is(err, ErrMissingField))
	assert.False(t, errors.Is(err, ErrInvalidValue))
	assert.Contains(t, err.Error(), "missing required field")
	assert.Contains(t, err.Error(), "amount")
}

func TestFieldError_Invalid(t *testing.T) {
	err := NewInvalidValue("total", "abc")

	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.Contains(t, err.Error(), "invalid value")
	assert.Contains(t, err.Error(), "abc")
	assert.Contains(t, err.Error(), "total")

	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "total", fieldErr.Field)
	assert.Equal(t, "abc", fieldErr.Value)
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("normalize", "default %v is not numeric", "x")

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "normalize", cfgErr.Component)
	assert.Contains(t, err.Error(), "normalize configuration")
	assert.Contains(t, err.Error(), "not numeric")
}
