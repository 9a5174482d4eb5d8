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

// Package jsonschema provides a [pipeline.Adapter] backed by JSON Schema
// validation via github.com/santhosh-tekuri/jsonschema/v6.
//
// A schema is either a precompiled *jsonschema.Schema or a JSON Schema
// source string. Source strings are compiled on first use and cached with
// LRU eviction, keyed by the source text.
package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/pipeline"
)

// defaultMaxCachedSchemas bounds the compiled-schema cache. Override with
// [WithMaxCachedSchemas].
const defaultMaxCachedSchemas = 1024

// Adapter validates values against JSON Schemas. It is safe for concurrent
// use and intended to be created once and shared across pipelines.
type Adapter struct {
	mu        sync.Mutex
	compiled  map[string]*jsonschema.Schema
	order     []string
	maxCached int
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithMaxCachedSchemas sets the compiled-schema cache bound.
func WithMaxCachedSchemas(n int) Option {
	return func(a *Adapter) {
		a.maxCached = n
	}
}

// New creates an Adapter.
//
// Example:
//
//	route := pipeline.NewRoute().WithAdapter(jsonschema.New())
func New(opts ...Option) *Adapter {
	a := &Adapter{
		compiled:  make(map[string]*jsonschema.Schema),
		maxCached: defaultMaxCachedSchemas,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Validate implements [pipeline.Adapter]. The value must be plain decoded
// data (maps, slices, strings, numbers, booleans, nil), which is exactly
// what the pipeline parsers produce. Validation failures are reported as
// issues; only schema misuse returns an error.
func (a *Adapter) Validate(_ context.Context, schema any, value any) (pipeline.Result, error) {
	s, err := a.schemaFor(schema)
	if err != nil {
		return pipeline.Result{}, err
	}

	if err := s.Validate(value); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return pipeline.Invalid(collectIssues(verr, nil)...), nil
		}

		return pipeline.Result{}, fmt.Errorf("jsonschema validate: %w", err)
	}

	return pipeline.Valid(value), nil
}

// schemaFor resolves the opaque schema value to a compiled schema.
func (a *Adapter) schemaFor(schema any) (*jsonschema.Schema, error) {
	switch s := schema.(type) {
	case *jsonschema.Schema:
		return s, nil
	case string:
		return a.getOrCompile(s)
	default:
		return nil, fmt.Errorf("jsonschema: unsupported schema type %T", schema)
	}
}

// getOrCompile returns the cached compiled schema for the source, compiling
// and caching on miss. The oldest entry is evicted when the cache is full.
func (a *Adapter) getOrCompile(source string) (*jsonschema.Schema, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.compiled[source]; ok {
		return s, nil
	}

	s, err := compile(source)
	if err != nil {
		return nil, err
	}

	if a.maxCached > 0 && len(a.compiled) >= a.maxCached {
		oldest := a.order[0]
		a.order = a.order[1:]
		delete(a.compiled, oldest)
	}
	a.compiled[source] = s
	a.order = append(a.order, source)

	return s, nil
}

// compile compiles a JSON Schema from its source string.
func compile(source string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	compiler.AssertContent()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	s, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return s, nil
}

// collectIssues flattens the structured validation error tree into leaf
// issues, converting each instance location into a typed path.
func collectIssues(verr *jsonschema.ValidationError, issues []pipeline.Issue) []pipeline.Issue {
	if verr == nil {
		return issues
	}

	if len(verr.Causes) == 0 {
		issues = append(issues, pipeline.Issue{
			Path:    toPath(verr.InstanceLocation),
			Message: verr.Error(),
		})
	}
	for _, cause := range verr.Causes {
		issues = collectIssues(cause, issues)
	}

	return issues
}

// toPath converts instance location segments, mapping numeric segments to
// array indexes.
func toPath(location []string) pipeline.Path {
	path := make(pipeline.Path, 0, len(location))
	for _, seg := range location {
		if i, err := strconv.Atoi(seg); err == nil {
			path = append(path, pipeline.Index(i))
			continue
		}
		path = append(path, pipeline.Key(seg))
	}

	return path
}
