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

// InputKind identifies which input category a validation applied to.
type InputKind int

const (
	// KindParams is the path-parameter category of a route pipeline.
	KindParams InputKind = iota

	// KindQuery is the query-string category of a route pipeline.
	KindQuery

	// KindBody is the request-body category of a route pipeline.
	KindBody

	// KindInput is the single input value of an action pipeline.
	KindInput

	// KindOutput is the handler output of an action pipeline.
	KindOutput
)

// String returns the category name.
func (k InputKind) String() string {
	switch k {
	case KindParams:
		return "params"
	case KindQuery:
		return "query"
	case KindBody:
		return "body"
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// message is the fixed default response message for a failed category.
func (k InputKind) message() string {
	switch k {
	case KindQuery:
		return "Invalid query"
	case KindBody:
		return "Invalid body"
	default:
		return "Invalid params"
	}
}

// Hooks provides observability callbacks without coupling the pipeline to a
// logging or metrics stack. All fields are optional; nil hooks cost
// nothing.
type Hooks struct {
	// BodyDecoded is called after the request body was decoded
	// successfully, with the lowercased content type.
	BodyDecoded func(contentType string)

	// InputValidated is called after each schema validation with the
	// category and whether the value passed.
	InputValidated func(kind InputKind, valid bool)

	// MiddlewareRan is called after each middleware step with its index
	// and whether it short-circuited the chain.
	MiddlewareRan func(index int, shortCircuit bool)
}

func (h Hooks) bodyDecoded(contentType string) {
	if h.BodyDecoded != nil {
		h.BodyDecoded(contentType)
	}
}

func (h Hooks) inputValidated(kind InputKind, valid bool) {
	if h.InputValidated != nil {
		h.InputValidated(kind, valid)
	}
}

func (h Hooks) middlewareRan(index int, shortCircuit bool) {
	if h.MiddlewareRan != nil {
		h.MiddlewareRan(index, shortCircuit)
	}
}
