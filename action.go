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
	"slices"

	json "github.com/goccy/go-json"
)

// DefaultServerErrorMessage is the fixed fallback string for action faults
// when no fault-to-string mapper is configured, or when the mapper returns
// an empty string or panics.
const DefaultServerErrorMessage = "Internal server error"

// Static errors for action pipeline misuse. They are caught at the pipeline
// boundary and mapped through the server-error policy, never propagated as
// a crash.
var (
	// ErrNextCalledTwice is raised when a middleware invokes its
	// continuation more than once in a single invocation.
	ErrNextCalledTwice = errors.New("action middleware called next more than once")

	// ErrInvalidMiddlewareResult is raised when a middleware returns a
	// zero [ActionResult] without an error.
	ErrInvalidMiddlewareResult = errors.New("action middleware returned an unrecognized result")

	// ErrInvalidActionOutput is raised when the handler output fails the
	// declared output schema.
	ErrInvalidActionOutput = errors.New("action output failed validation")
)

// Metadata is static, per-action descriptive data passed to middleware and
// the handler, e.g. an action name for audit trails.
type Metadata map[string]any

// resultKind discriminates the populated ActionResult variant. The zero
// kind marks an unset result, which the chain runner treats as middleware
// misuse.
type resultKind int

const (
	resultUnset resultKind = iota
	resultData
	resultValidationErrors
	resultServerError
)

// ActionResult is the sole return channel of an action pipeline: exactly
// one of Data, ValidationErrors, or ServerError is populated. Construct
// results with [ActionSuccess], [ActionInvalid], or [ActionFailure]; the
// zero value is not a valid result.
type ActionResult struct {
	Data             any
	ValidationErrors *ValidationErrors
	ServerError      string

	kind resultKind
}

// ActionSuccess returns a result carrying the handler's output.
func ActionSuccess(data any) ActionResult {
	return ActionResult{kind: resultData, Data: data}
}

// ActionInvalid returns a result carrying normalized validation errors.
func ActionInvalid(ve *ValidationErrors) ActionResult {
	return ActionResult{kind: resultValidationErrors, ValidationErrors: ve}
}

// ActionFailure returns a result carrying a server error message.
func ActionFailure(message string) ActionResult {
	return ActionResult{kind: resultServerError, ServerError: message}
}

// Succeeded reports whether the result carries success data.
func (res ActionResult) Succeeded() bool {
	return res.kind == resultData
}

// Invalid reports whether the result carries validation errors.
func (res ActionResult) Invalid() bool {
	return res.kind == resultValidationErrors
}

// Failed reports whether the result carries a server error.
func (res ActionResult) Failed() bool {
	return res.kind == resultServerError
}

// MarshalJSON encodes only the populated variant.
func (res ActionResult) MarshalJSON() ([]byte, error) {
	switch res.kind {
	case resultData:
		return json.Marshal(struct {
			Data any `json:"data"`
		}{res.Data})
	case resultValidationErrors:
		return json.Marshal(struct {
			ValidationErrors *ValidationErrors `json:"validationErrors"`
		}{res.ValidationErrors})
	case resultServerError:
		return json.Marshal(struct {
			ServerError string `json:"serverError"`
		}{res.ServerError})
	default:
		return nil, ErrInvalidMiddlewareResult
	}
}

// Next resumes the remainder of an action chain with an optional context
// patch. It must be called at most once per middleware invocation; a second
// call returns [ErrNextCalledTwice].
type Next func(patch Data) (ActionResult, error)

// MiddlewareRequest is the argument of one action middleware step.
type MiddlewareRequest struct {
	// Input is the schema-validated input value.
	Input any

	// Ctx is the cumulative merged context from all prior steps.
	Ctx Data

	// Metadata is the action's static metadata.
	Metadata Metadata

	// Next resumes the remainder of the chain. A middleware may instead
	// return a result directly without calling Next, short-circuiting the
	// chain.
	Next Next
}

// ActionMiddleware is one step of an action pipeline's chain. Returning an
// error, or a zero [ActionResult], routes through the server-error policy.
type ActionMiddleware func(ctx context.Context, req *MiddlewareRequest) (ActionResult, error)

// ActionRequest is the argument of the terminal action handler.
type ActionRequest struct {
	Input    any
	Ctx      Data
	Metadata Metadata
}

// ActionHandlerFunc is the terminal business-logic handler of an action
// pipeline. Its return value is validated against the output schema when
// one was declared.
type ActionHandlerFunc func(ctx context.Context, req *ActionRequest) (any, error)

// ActionHandler is a wrapped action pipeline invocation. It never panics
// and never returns an error: every fault resolves to a server-error
// result.
type ActionHandler func(ctx context.Context, input any) ActionResult

// ServerErrorFunc maps a fault to the server error message. An empty
// return, or a panic inside the mapper, falls back to
// [DefaultServerErrorMessage].
type ServerErrorFunc func(err error) string

// actionConfig is the full configuration of one Action.
type actionConfig struct {
	adapter       Adapter
	inputSchema   any
	outputSchema  any
	metadata      Metadata
	baseCtx       Data
	middlewares   []ActionMiddleware
	onServerError ServerErrorFunc
	hooks         Hooks
}

// Action is an immutable action pipeline builder. Like [Route], every
// configuration method returns a new value, so a base Action can be
// branched into differently configured handlers.
//
// Example:
//
//	base := pipeline.NewAction().
//		WithAdapter(jsonschema.New()).
//		Use(authMiddleware)
//
//	createUser := base.Input(userSchema).Handler(create)
type Action struct {
	cfg actionConfig
}

// NewAction returns an Action with no schemas, middleware, or metadata.
func NewAction() Action {
	return Action{}
}

// WithAdapter sets the validation adapter used for the input and output
// schemas.
func (a Action) WithAdapter(ad Adapter) Action {
	a.cfg.adapter = ad
	return a
}

// Input declares the schema for the single input value.
func (a Action) Input(schema any) Action {
	a.cfg.inputSchema = schema
	return a
}

// Output declares the schema the handler output is validated against.
func (a Action) Output(schema any) Action {
	a.cfg.outputSchema = schema
	return a
}

// WithMetadata sets the action's static metadata.
func (a Action) WithMetadata(md Metadata) Action {
	a.cfg.metadata = md
	return a
}

// WithData sets the base context the middleware chain starts from.
func (a Action) WithData(base Data) Action {
	a.cfg.baseCtx = base
	return a
}

// Use appends middleware to the chain.
func (a Action) Use(mw ...ActionMiddleware) Action {
	a.cfg.middlewares = append(slices.Clip(a.cfg.middlewares), mw...)
	return a
}

// WithServerError sets the fault-to-string mapper.
func (a Action) WithServerError(fn ServerErrorFunc) Action {
	a.cfg.onServerError = fn
	return a
}

// WithHooks sets observability callbacks.
func (a Action) WithHooks(h Hooks) Action {
	a.cfg.hooks = h
	return a
}

// Handler wraps the terminal handler into an [ActionHandler]: validate the
// input, run the middleware chain with one-shot continuations, invoke h,
// validate its output, and return a three-way [ActionResult]. Faults raised
// anywhere inside, including panics, are caught once at this boundary and
// converted to a server-error result.
func (a Action) Handler(h ActionHandlerFunc) ActionHandler {
	cfg := a.cfg

	return func(ctx context.Context, input any) ActionResult {
		res, err := cfg.invoke(ctx, input, h)
		if err != nil {
			return ActionFailure(cfg.serverErrorMessage(err))
		}

		return res
	}
}

// invoke runs the action states in order, returning an error only for
// faults destined for the server-error policy.
func (cfg actionConfig) invoke(ctx context.Context, input any, h ActionHandlerFunc) (res ActionResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res, err = ActionResult{}, fmt.Errorf("panic in action: %v", rec)
		}
	}()

	parsed := input
	if cfg.inputSchema != nil {
		if cfg.adapter == nil {
			return ActionResult{}, ErrNoAdapter
		}
		r, verr := cfg.adapter.Validate(ctx, cfg.inputSchema, input)
		if verr != nil {
			return ActionResult{}, fmt.Errorf("validate input: %w", verr)
		}
		cfg.hooks.inputValidated(KindInput, r.Valid)
		if !r.Valid {
			return ActionInvalid(Normalize(r.Issues)), nil
		}
		parsed = r.Data
	}

	var run func(i int, data Data) (ActionResult, error)
	run = func(i int, data Data) (ActionResult, error) {
		if i >= len(cfg.middlewares) {
			return cfg.terminal(ctx, parsed, data, h)
		}

		// The continuation guard is allocated fresh per invocation, so
		// concurrent invocations of the same handler cannot contaminate
		// each other.
		called := false
		next := Next(func(patch Data) (ActionResult, error) {
			if called {
				return ActionResult{}, ErrNextCalledTwice
			}
			called = true

			return run(i+1, mergeData(cloneData(data), patch))
		})

		res, err := cfg.middlewares[i](ctx, &MiddlewareRequest{
			Input:    parsed,
			Ctx:      data,
			Metadata: cfg.metadata,
			Next:     next,
		})
		if err != nil {
			return ActionResult{}, err
		}
		if res.kind == resultUnset {
			return ActionResult{}, ErrInvalidMiddlewareResult
		}
		cfg.hooks.middlewareRan(i, !called)

		return res, nil
	}

	return run(0, cloneData(cfg.baseCtx))
}

// terminal invokes the handler and validates its output when an output
// schema was declared.
func (cfg actionConfig) terminal(ctx context.Context, parsed any, data Data, h ActionHandlerFunc) (ActionResult, error) {
	out, err := h(ctx, &ActionRequest{Input: parsed, Ctx: data, Metadata: cfg.metadata})
	if err != nil {
		return ActionResult{}, err
	}

	if cfg.outputSchema != nil {
		if cfg.adapter == nil {
			return ActionResult{}, ErrNoAdapter
		}
		r, verr := cfg.adapter.Validate(ctx, cfg.outputSchema, out)
		if verr != nil {
			return ActionResult{}, fmt.Errorf("validate output: %w", verr)
		}
		cfg.hooks.inputValidated(KindOutput, r.Valid)
		if !r.Valid {
			return ActionResult{}, ErrInvalidActionOutput
		}
		out = r.Data
	}

	return ActionSuccess(out), nil
}

// serverErrorMessage resolves the server error string for a fault. The
// mapper runs behind a recover so a second fault can never escape.
func (cfg actionConfig) serverErrorMessage(err error) string {
	msg := DefaultServerErrorMessage
	if cfg.onServerError == nil {
		return msg
	}

	func() {
		defer func() {
			_ = recover()
		}()
		if m := cfg.onServerError(err); m != "" {
			msg = m
		}
	}()

	return msg
}
