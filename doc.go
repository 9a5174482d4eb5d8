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

// Package pipeline wraps request handlers with declarative input validation,
// configurable parsing of path parameters, query strings and request bodies,
// ordered middleware execution, and centralized error-to-response mapping.
//
// The package is host-framework agnostic: it does not listen on sockets or
// route by path pattern. A [Route] produces a [Handler] that any router can
// invoke, and an [Action] produces an [ActionHandler] for non-HTTP
// invocations. Validation is delegated to a pluggable [Adapter]; the
// jsonschema and playground subpackages provide ready-made backends.
//
// # Route pipeline
//
// A Route is an immutable builder. Every configuration method returns a new
// value, so a base Route can be branched into differently configured
// handlers without interference:
//
//	base := pipeline.NewRoute().WithAdapter(jsonschema.New())
//
//	create := base.Body(createSchema).Handler(createUser)
//	list := base.Query(listSchema).Handler(listUsers)
//
// Each invocation runs a fixed sequence: resolve path params, parse the
// query string, decode the body, validate params, query and body in that
// order, run the middleware chain, then call the terminal handler. Each
// stage can short-circuit to a response; validation failures produce a 400
// response and unexpected faults a 500 response, so no error ever escapes
// the returned [Handler].
//
// # Action pipeline
//
// An [Action] validates a single input value, runs middleware driven by an
// explicit one-shot next continuation, optionally validates the handler's
// output, and always returns an [ActionResult] holding exactly one of
// success data, validation errors, or a server error string:
//
//	act := pipeline.NewAction().
//		WithAdapter(jsonschema.New()).
//		Input(inputSchema).
//		Handler(createUser)
//
//	res := act(ctx, map[string]any{"name": "gopher"})
//
// # Concurrency
//
// Builders are immutable and safe to share across goroutines. All mutable
// state is local to a single invocation.
package pipeline
