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
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Static errors for pipeline misuse. They surface through the generic fault
// policy, never as raw errors escaping a handler.
var (
	// ErrNoAdapter is raised when a schema was declared but no validation
	// adapter was configured.
	ErrNoAdapter = errors.New("no validation adapter configured")

	// ErrNilResponse is raised when a terminal route handler returns a nil
	// response with a nil error.
	ErrNilResponse = errors.New("handler returned nil response")
)

// HandlerFunc is the terminal business-logic handler of a route pipeline.
// It receives the request and the fully assembled, pre-validated [Context].
type HandlerFunc func(r *http.Request, c *Context) (*Response, error)

// Middleware is one step of a route pipeline's chain. It receives the
// cumulative merged context data from all prior steps. Returning a non-nil
// response stops the chain and makes that response the pipeline's output;
// otherwise the returned patch is shallow-merged into the running context.
// Returning an error routes through the generic fault policy.
type Middleware func(r *http.Request, data Data) (patch Data, resp *Response, err error)

// Handler is a wrapped route pipeline invocation. It never returns an
// error: every fault is resolved to a response within the invocation that
// raised it.
type Handler func(r *http.Request, rc RouteContext) *Response

// ErrorResponseFunc maps an unexpected fault to a response. Returning nil
// falls back to the default 500 response.
type ErrorResponseFunc func(r *http.Request, err error) *Response

// ValidationResponseFunc maps a validation failure to a custom response.
// It receives the failed category and the raw issues. Returning nil falls
// back to the default 400 response for the category.
type ValidationResponseFunc func(r *http.Request, kind InputKind, issues []Issue) *Response

// routeConfig is the full configuration of one Route. Copies are value
// copies; slices are clipped on append so branched builders never alias.
type routeConfig struct {
	adapter           Adapter
	paramsSchema      any
	querySchema       any
	bodySchema        any
	query             queryOptions
	body              bodyOptions
	baseData          Data
	middlewares       []Middleware
	onError           ErrorResponseFunc
	onValidationError ValidationResponseFunc
	hooks             Hooks
}

// Route is an immutable route pipeline builder. Every configuration method
// returns a new Route layering one change onto the previous configuration,
// so a Route can be shared and branched freely across goroutines.
//
// Example:
//
//	base := pipeline.NewRoute().
//		WithAdapter(jsonschema.New()).
//		Use(authMiddleware)
//
//	createHandler := base.Body(createSchema).Handler(create)
//	deleteHandler := base.Params(idSchema).Handler(remove)
type Route struct {
	cfg routeConfig
}

// NewRoute returns a Route with default parser options: auto array
// strategy, last-value selection, no coercion, strict content types, and
// empty bodies allowed.
func NewRoute() Route {
	return Route{cfg: routeConfig{
		query: defaultQueryOptions(),
		body:  defaultBodyOptions(),
	}}
}

// WithAdapter sets the validation adapter used for all declared schemas.
func (rt Route) WithAdapter(a Adapter) Route {
	rt.cfg.adapter = a
	return rt
}

// Params declares the schema for path parameters.
func (rt Route) Params(schema any) Route {
	rt.cfg.paramsSchema = schema
	return rt
}

// Query declares the schema for the decoded query string.
func (rt Route) Query(schema any) Route {
	rt.cfg.querySchema = schema
	return rt
}

// Body declares the schema for the decoded request body. Without a declared
// body schema the request body is never read.
func (rt Route) Body(schema any) Route {
	rt.cfg.bodySchema = schema
	return rt
}

// WithData sets the base context data the middleware chain starts from.
func (rt Route) WithData(base Data) Route {
	rt.cfg.baseData = base
	return rt
}

// Use appends middleware to the chain. Steps run strictly sequentially in
// declaration order.
func (rt Route) Use(mw ...Middleware) Route {
	rt.cfg.middlewares = append(slices.Clip(rt.cfg.middlewares), mw...)
	return rt
}

// WithQueryArrayMode sets the query-string array strategy.
func (rt Route) WithQueryArrayMode(m ArrayMode) Route {
	rt.cfg.query.arrays = m
	return rt
}

// WithQueryPickMode sets which repeated query value wins under [ArrayNever].
func (rt Route) WithQueryPickMode(m PickMode) Route {
	rt.cfg.query.pick = m
	return rt
}

// WithQueryCoercion sets the query value coercion function, e.g.
// [Primitive].
func (rt Route) WithQueryCoercion(fn CoerceFunc) Route {
	rt.cfg.query.coerce = fn
	return rt
}

// WithBodyArrayMode sets the form-body array strategy.
func (rt Route) WithBodyArrayMode(m ArrayMode) Route {
	rt.cfg.body.arrays = m
	return rt
}

// WithBodyPickMode sets which repeated form value wins under [ArrayNever].
func (rt Route) WithBodyPickMode(m PickMode) Route {
	rt.cfg.body.pick = m
	return rt
}

// WithBodyCoercion sets the body value coercion function.
func (rt Route) WithBodyCoercion(fn CoerceFunc) Route {
	rt.cfg.body.coerce = fn
	return rt
}

// WithStrictContentType controls whether unrecognized content types are
// rejected (the default) or decoded via the fallback strategy.
func (rt Route) WithStrictContentType(strict bool) Route {
	rt.cfg.body.strict = strict
	return rt
}

// WithAllowEmptyBody controls whether a zero-length body is accepted (the
// default) or rejected with "Request body is required.".
func (rt Route) WithAllowEmptyBody(allow bool) Route {
	rt.cfg.body.allowEmpty = allow
	return rt
}

// WithEmptyBodyValue sets the value an accepted empty body resolves to. An
// explicit nil is honored; without this option an empty body resolves to an
// empty mapping.
func (rt Route) WithEmptyBodyValue(v any) Route {
	rt.cfg.body.emptyValue = v
	rt.cfg.body.hasEmptyValue = true
	return rt
}

// WithBodyFallback sets the decode strategy for unrecognized content types
// when strict checking is disabled.
func (rt Route) WithBodyFallback(m FallbackMode) Route {
	rt.cfg.body.fallback = m
	return rt
}

// WithErrorResponse sets a custom fault-to-response mapper. Body decode
// failures bypass it and always produce their own 400 response.
func (rt Route) WithErrorResponse(fn ErrorResponseFunc) Route {
	rt.cfg.onError = fn
	return rt
}

// WithValidationResponse sets a custom validation-failure-to-response
// mapper.
func (rt Route) WithValidationResponse(fn ValidationResponseFunc) Route {
	rt.cfg.onValidationError = fn
	return rt
}

// WithHooks sets observability callbacks.
func (rt Route) WithHooks(h Hooks) Route {
	rt.cfg.hooks = h
	return rt
}

// Handler wraps the terminal handler into a [Handler] running the full
// pipeline: resolve params, parse query, decode body, validate params,
// query and body in that fixed order, run the middleware chain, invoke h,
// and map any fault to a response. The returned Handler is the fault
// firewall: panics and errors raised anywhere inside the invocation are
// converted to responses.
func (rt Route) Handler(h HandlerFunc) Handler {
	cfg := rt.cfg

	return func(r *http.Request, rc RouteContext) *Response {
		resp, err := cfg.invoke(r, rc, h)
		if err != nil {
			return cfg.errorResponse(r, err)
		}

		return resp
	}
}

// invoke runs the pipeline states in order. It returns either a final
// response or an error for the fault policy to map.
func (cfg routeConfig) invoke(r *http.Request, rc RouteContext, h HandlerFunc) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp, err = nil, fmt.Errorf("panic in pipeline: %v", rec)
		}
	}()

	ctx := r.Context()

	params, err := rc.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve params: %w", err)
	}

	query := decodeQuery(r.URL.Query(), cfg.query)

	body, err := decodeBody(r, cfg.bodySchema != nil, cfg.body)
	if err != nil {
		return nil, err
	}
	cfg.hooks.bodyDecoded(strings.ToLower(r.Header.Get("Content-Type")))

	// Validation order params -> query -> body is fixed: callers rely on
	// seeing the first failing category.
	pc := &Context{}

	pc.Params, resp, err = cfg.validateInput(ctx, r, KindParams, cfg.paramsSchema, params)
	if resp != nil || err != nil {
		return resp, err
	}

	pc.Query, resp, err = cfg.validateInput(ctx, r, KindQuery, cfg.querySchema, query)
	if resp != nil || err != nil {
		return resp, err
	}

	pc.Body, resp, err = cfg.validateInput(ctx, r, KindBody, cfg.bodySchema, body)
	if resp != nil || err != nil {
		return resp, err
	}

	data := cloneData(cfg.baseData)
	for i, mw := range cfg.middlewares {
		patch, early, err := mw(r, data)
		if err != nil {
			return nil, err
		}
		cfg.hooks.middlewareRan(i, early != nil)
		if early != nil {
			return early, nil
		}
		data = mergeData(data, patch)
	}
	pc.Data = data

	resp, err = h(r, pc)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNilResponse
	}

	return resp, nil
}

// validateInput applies the adapter to one input category. A nil schema
// passes the value through unchanged, defaulting to an empty mapping when
// the value is absent; the category is only validated when opted into.
func (cfg routeConfig) validateInput(ctx context.Context, r *http.Request, kind InputKind, schema, value any) (any, *Response, error) {
	if schema == nil {
		if value == nil {
			return Data{}, nil, nil
		}

		return value, nil, nil
	}
	if cfg.adapter == nil {
		return nil, nil, ErrNoAdapter
	}

	res, err := cfg.adapter.Validate(ctx, schema, value)
	if err != nil {
		return nil, nil, fmt.Errorf("validate %s: %w", kind, err)
	}
	cfg.hooks.inputValidated(kind, res.Valid)
	if res.Valid {
		return res.Data, nil, nil
	}

	if cfg.onValidationError != nil {
		if resp := cfg.onValidationError(r, kind, res.Issues); resp != nil {
			return nil, resp, nil
		}
	}

	return nil, validationResponse(kind, res.Issues), nil
}

// errorResponse maps a fault to a response. A [BodyError] always maps to a
// 400 with its own message, custom mapper or not. The custom mapper is
// guarded so that a panic inside it cannot escape the pipeline.
func (cfg routeConfig) errorResponse(r *http.Request, err error) *Response {
	var bodyErr *BodyError
	if errors.As(err, &bodyErr) {
		return messageResponse(http.StatusBadRequest, bodyErr.Message)
	}

	if cfg.onError != nil {
		if resp := cfg.safeOnError(r, err); resp != nil {
			return resp
		}
	}

	return messageResponse(http.StatusInternalServerError, msgInternalServerError)
}

func (cfg routeConfig) safeOnError(r *http.Request, err error) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
		}
	}()

	return cfg.onError(r, err)
}
