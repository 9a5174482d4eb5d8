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
	"context"
	"net/http"
)

// Params maps path-parameter names to values. A value is a string, or a
// []string for catch-all segments.
type Params map[string]any

// ParamsFunc resolves path parameters for one invocation. Routers that have
// the parameters at hand use [StaticParams]; routers that resolve them
// lazily supply their own function. The pipeline awaits the function
// uniformly either way.
type ParamsFunc func(ctx context.Context) (Params, error)

// StaticParams wraps already-resolved parameters in a [ParamsFunc].
func StaticParams(p Params) ParamsFunc {
	return func(context.Context) (Params, error) {
		return p, nil
	}
}

// RouteContext carries per-request data supplied by the host router.
type RouteContext struct {
	// Params resolves the path parameters. A nil Params resolves to an
	// empty mapping.
	Params ParamsFunc
}

// resolve awaits the params container and normalizes absent or nil results
// to an empty mapping.
func (rc RouteContext) resolve(ctx context.Context) (Params, error) {
	if rc.Params == nil {
		return Params{}, nil
	}
	p, err := rc.Params(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = Params{}
	}

	return p, nil
}

// HTTPHandler adapts a [Handler] to net/http, extracting the named path
// parameters with http.Request.PathValue. It is a convenience for hosts on
// the standard mux; framework routers should invoke the Handler directly
// with their own [RouteContext].
//
// Example:
//
//	mux.Handle("POST /users/{id}", pipeline.HTTPHandler(h, "id"))
func HTTPHandler(h Handler, paramNames ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := make(Params, len(paramNames))
		for _, name := range paramNames {
			params[name] = r.PathValue(name)
		}
		_ = h(r, RouteContext{Params: StaticParams(params)}).Write(w)
	})
}
