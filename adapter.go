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

import "context"

// Adapter is the validation capability consumed by route and action
// pipelines. The schema value is opaque to the pipeline: it is passed
// through to the adapter unchanged, so each backend defines its own schema
// representation.
//
// Validate must not return an error for an ordinary validation failure;
// failures are reported through [Result.Issues]. The error return is
// reserved for adapter misuse, such as a malformed schema, and is treated
// by the pipelines as an unexpected fault.
//
// Implementations must be safe for concurrent use.
type Adapter interface {
	Validate(ctx context.Context, schema any, value any) (Result, error)
}

// AdapterFunc adapts a function to the [Adapter] interface.
type AdapterFunc func(ctx context.Context, schema any, value any) (Result, error)

// Validate implements [Adapter].
func (f AdapterFunc) Validate(ctx context.Context, schema any, value any) (Result, error) {
	return f(ctx, schema, value)
}

// Result is the outcome of one [Adapter.Validate] call. Exactly one variant
// is populated: Data when Valid is true, Issues otherwise.
type Result struct {
	// Valid reports whether the value passed validation.
	Valid bool

	// Data is the validated output. Schemas may transform or coerce, so
	// Data is not necessarily identical to the input value.
	Data any

	// Issues lists the validation complaints when Valid is false.
	Issues []Issue
}

// Valid returns a successful [Result] carrying the validated output.
func Valid(data any) Result {
	return Result{Valid: true, Data: data}
}

// Invalid returns a failed [Result] carrying the given issues.
func Invalid(issues ...Issue) Result {
	return Result{Issues: issues}
}
