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

import "net/url"

// queryOptions configures query-string decoding for one pipeline.
type queryOptions struct {
	arrays ArrayMode
	pick   PickMode
	coerce CoerceFunc
}

func defaultQueryOptions() queryOptions {
	return queryOptions{arrays: ArrayAuto, pick: PickLast}
}

// decodeQuery turns url.Values into a mapping, visiting each key once and
// running every submitted value through coercion before selection.
func decodeQuery(values url.Values, o queryOptions) Data {
	out := make(Data, len(values))
	for key, vals := range values {
		coerced := make([]any, len(vals))
		for i, raw := range vals {
			coerced[i] = coerceValue(raw, key, o.coerce)
		}
		out[key] = selectValues(coerced, o.arrays, o.pick)
	}

	return out
}
