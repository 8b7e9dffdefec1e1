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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refinelab/refinery/core"
	"github.com/refinelab/refinery/ops"
)

func orderOperations(t *testing.T) []core.Operation {
	t.Helper()
	amount, err := ops.NormalizeNumber("amount")
	require.NoError(t, err)
	orderID, err := ops.Match("order_id", `^ORD\d+$`)
	require.NoError(t, err)
	name, err := ops.Require("customer_name")
	require.NoError(t, err)
	return []core.Operation{amount, orderID, name}
}

func productOperations(t *testing.T) []core.Operation {
	t.Helper()
	price, err := ops.NormalizeNumber("price", ops.WithDefault(0.0))
	require.NoError(t, err)
	sku, err := ops.Match("product_sku", `^SKU_\w+$`)
	require.NoError(t, err)
	return []core.Operation{price, sku}
}

func TestTypeRouter_Dispatch(t *testing.T) {
	router := NewTypeRouter()
	require.NoError(t, router.Register("order_event", orderOperations(t)...))
	require.NoError(t, router.Register("product_update", productOperations(t)...))
	ctx := context.Background()

	order := core.Record{
		"_type":         "order_event",
		"order_id":      "ORD789",
		"customer_name": "Luis Vargas",
		"amount":        "123,45 EUR",
	}
	outcome := router.Apply(ctx, order)
	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, 123.45, outcome.Record["amount"])

	product := core.Record{
		"_type":       "product_update",
		"product_sku": "SKU_P002",
		"price":       nil,
	}
	outcome = router.Apply(ctx, product)
	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Equal(t, 0.0, outcome.Record["price"])
}

func TestTypeRouter_AccumulatesErrors(t *testing.T) {
	router := NewTypeRouter()
	require.NoError(t, router.Register("order_event", orderOperations(t)...))

	record := core.Record{
		"_type":    "order_event",
		"order_id": "BAD",
		"amount":   "no_es_un_numero",
	}
	outcome := router.Apply(context.Background(), record)

	assert.Equal(t, core.StatusFailure, outcome.Status)
	// amount unparseable, order_id mismatched, customer_name missing.
	assert.Len(t, outcome.Errors, 3)
}

func TestTypeRouter_UnknownType(t *testing.T) {
	router := NewTypeRouter()
	require.NoError(t, router.Register("order_event", orderOperations(t)...))
	ctx := context.Background()

	outcome := router.Apply(ctx, core.Record{"_type": "mystery"})
	assert.Equal(t, core.StatusFailure, outcome.Status)
	require.Len(t, outcome.Errors, 1)

	var unknownErr *UnknownTypeError
	require.True(t, errors.As(outcome.Errors[0], &unknownErr))
	assert.Equal(t, "mystery", unknownErr.Type)

	// Missing discriminator behaves the same.
	outcome = router.Apply(ctx, core.Record{})
	assert.Equal(t, core.StatusFailure, outcome.Status)
}

func TestTypeRouter_NonStringDiscriminator(t *testing.T) {
	router := NewTypeRouter()
	require.NoError(t, router.Register("order_event", orderOperations(t)...))

	outcome := router.Apply(context.Background(), core.Record{"_type": 5})
	assert.Equal(t, core.StatusFailure, outcome.Status)
	require.Len(t, outcome.Errors, 1)

	// The offending value is named, not collapsed to an empty string.
	var unknownErr *UnknownTypeError
	require.True(t, errors.As(outcome.Errors[0], &unknownErr))
	assert.Equal(t, "5", unknownErr.Type)
	assert.Contains(t, outcome.Errors[0].Error(), `"5"`)
}

func TestTypeRouter_CustomTypeField(t *testing.T) {
	router := NewTypeRouter(WithTypeField("kind"))
	require.NoError(t, router.Register("product_update", productOperations(t)...))

	record := core.Record{"kind": "product_update", "product_sku": "SKU_9", "price": "25.00"}
	outcome := router.Apply(context.Background(), record)

	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Equal(t, 25.0, outcome.Record["price"])
}

func TestTypeRouter_Annotation(t *testing.T) {
	router := NewTypeRouter(WithAnnotation("_status", "_errors"))
	require.NoError(t, router.Register("order_event", orderOperations(t)...))
	ctx := context.Background()

	bad := core.Record{"_type": "order_event", "amount": "abc"}
	outcome := router.Apply(ctx, bad)
	assert.Equal(t, "failure", outcome.Record["_status"])
	messages, ok := outcome.Record["_errors"].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, messages)

	good := core.Record{
		"_type":         "order_event",
		"order_id":      "ORD1",
		"customer_name": "Bob",
		"amount":        "1.0",
	}
	outcome = router.Apply(ctx, good)
	assert.Equal(t, "success", outcome.Record["_status"])
	messages, ok = outcome.Record["_errors"].([]string)
	require.True(t, ok)
	assert.Empty(t, messages)
}

func TestTypeRouter_EmptyRouteSucceeds(t *testing.T) {
	router := NewTypeRouter()
	require.NoError(t, router.Register("noop"))

	outcome := router.Apply(context.Background(), core.Record{"_type": "noop"})
	assert.Equal(t, core.StatusSuccess, outcome.Status)
	assert.Empty(t, outcome.Errors)
}

func TestTypeRouter_DuplicateRegistration(t *testing.T) {
	router := NewTypeRouter()
	require.NoError(t, router.Register("order_event"))

	err := router.Register("order_event")
	var cfgErr *core.ConfigError
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))

	err = router.Register("")
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))
}
