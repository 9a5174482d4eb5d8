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

// Data is the context accumulated by a middleware chain: a string-keyed
// mapping built by shallow merge of a base context and each middleware's
// returned patch, in declaration order.
type Data map[string]any

// Context carries the fully assembled inputs for a terminal route handler.
// Each input field holds the schema-validated output, or the raw parsed
// value when no schema was declared for that category (an empty [Data] when
// the category is absent).
type Context struct {
	Params any
	Query  any
	Body   any
	Data   Data
}

// cloneData returns a fresh shallow copy so per-invocation merges never
// touch the shared base context.
func cloneData(d Data) Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}

// mergeData shallow-merges patch into dst; later keys overwrite earlier
// keys of the same name. dst must be invocation-local.
func mergeData(dst, patch Data) Data {
	for k, v := range patch {
		dst[k] = v
	}

	return dst
}
