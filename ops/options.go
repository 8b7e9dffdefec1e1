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
	"fmt"
)

// missingPolicy governs how an operation treats an absent (or nil) field.
type missingPolicy uint8

const (
	// missingRequired reports a failure for absent fields.
	missingRequired missingPolicy = iota
	// missingDefault injects a configured default value.
	missingDefault
	// missingIgnore leaves the record untouched and reports a skip.
	missingIgnore
)

// settings holds the per-operation configuration shared by field operations.
// Bound once at construction; operations never mutate it afterwards.
type settings struct {
	policy    missingPolicy
	def       interface{}
	policySet bool
}

// Option configures a field operation at construction time. Contradictory
// options (e.g. Required together with WithDefault) are a configuration
// error surfaced by the constructor.
type Option func(*settings) error

func (s *settings) setPolicy(p missingPolicy) error {
	if s.policySet && s.policy != p {
		return fmt.Errorf("conflicting missing-field policies")
	}
	s.policy = p
	s.policySet = true
	return nil
}

// Required makes field absence a failure. This is the default policy; the
// option exists so configuration can be explicit.
func Required() Option {
	return func(s *settings) error {
		return s.setPolicy(missingRequired)
	}
}

// WithDefault resolves field absence by writing the given value into the
// record. The operation's constructor validates that the value fits the
// operation (e.g. numeric for NormalizeNumber).
func WithDefault(value interface{}) Option {
	return func(s *settings) error {
		if err := s.setPolicy(missingDefault); err != nil {
			return err
		}
		s.def = value
		return nil
	}
}

// Ignore resolves field absence by leaving the record untouched and
// reporting a skipped status.
func Ignore() Option {
	return func(s *settings) error {
		return s.setPolicy(missingIgnore)
	}
}

// applyOptions folds options into a settings value, defaulting to the
// required policy.
func applyOptions(options []Option) (settings, error) {
	s := settings{policy: missingRequired}
	for _, opt := range options {
		if err := opt(&s); err != nil {
			return s, err
		}
	}
	return s, nil
}
