// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"regexp"

	"github.com/spf13/cast"
)

// CoerceFunc converts a raw string submitted under key into a typed value.
// A nil CoerceFunc leaves values as strings. Custom functions override the
// built-in rules entirely.
type CoerceFunc func(value string, key string) any

// numberPattern matches plain integers and decimals, with an optional sign.
// Forms like "1e3" or "0x1f" deliberately stay strings.
var numberPattern = regexp.MustCompile(`^-?(\d+|\d*\.\d+)$`)

// Primitive is a [CoerceFunc] that parses "true" and "false" to booleans,
// "null" to nil, and integer or decimal strings to float64. Any other value
// is returned unchanged.
//
// Example:
//
//	route := pipeline.NewRoute().WithQueryCoercion(pipeline.Primitive)
func Primitive(value string, _ string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if numberPattern.MatchString(value) {
		if n, err := cast.ToFloat64E(value); err == nil {
			return n
		}
	}

	return value
}

// ArrayMode controls whether repeated values for a key become a slice or a
// single value.
type ArrayMode int

const (
	// ArrayAuto returns the lone value when exactly one is present,
	// otherwise the full slice. A single-valued repeatable key is therefore
	// indistinguishable from a truly scalar key; callers that need a stable
	// shape should use ArrayAlways or ArrayNever.
	ArrayAuto ArrayMode = iota

	// ArrayAlways returns a slice, even for zero or one value.
	ArrayAlways

	// ArrayNever returns a single value chosen by [PickMode], or nil when
	// no values are present.
	ArrayNever
)

// PickMode selects which value wins when [ArrayNever] collapses repeated
// values to a scalar.
type PickMode int

const (
	// PickLast selects the last submitted value. This is the default.
	PickLast PickMode = iota

	// PickFirst selects the first submitted value.
	PickFirst
)

// coerceValue applies fn to a raw value, or returns it unchanged when fn is
// nil.
func coerceValue(value, key string, fn CoerceFunc) any {
	if fn == nil {
		return value
	}

	return fn(value, key)
}

// selectValues reduces the coerced values for one key according to the
// configured array and pick modes. It never mutates values.
func selectValues(values []any, arrays ArrayMode, pick PickMode) any {
	switch arrays {
	case ArrayAlways:
		if values == nil {
			return []any{}
		}
		return values
	case ArrayNever:
		if len(values) == 0 {
			return nil
		}
		if pick == PickFirst {
			return values[0]
		}
		return values[len(values)-1]
	default:
		if len(values) == 1 {
			return values[0]
		}
		return values
	}
}
