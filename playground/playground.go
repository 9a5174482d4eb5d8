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

// Package playground provides a [pipeline.Adapter] backed by
// go-playground/validator struct tags.
//
// A schema is a struct prototype: the adapter decodes the plain input value
// into a fresh instance of the prototype's type with mapstructure, then
// validates it with validator/v10. On success the typed struct is the
// validated output, so handlers receive a strongly-typed value instead of a
// raw map:
//
//	type CreateUser struct {
//		Name  string `json:"name" validate:"required,min=3"`
//		Email string `json:"email" validate:"required,email"`
//	}
//
//	route := pipeline.NewRoute().
//		WithAdapter(playground.New()).
//		Body(playground.Schema[CreateUser]())
package playground

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"rivaas.dev/pipeline"
)

// prototype is the schema value: the struct type to decode and validate
// against.
type prototype struct {
	typ reflect.Type
}

// Schema declares a struct type as a validation schema.
func Schema[T any]() any {
	return prototype{typ: reflect.TypeFor[T]()}
}

// Adapter validates values against struct tags. It is safe for concurrent
// use.
type Adapter struct {
	validate *validator.Validate
}

// New creates an Adapter. Field names in issue paths come from json tags,
// falling back to the Go field name.
func New() *Adapter {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "-" {
			return ""
		}
		if idx := strings.Index(name, ","); idx != -1 {
			name = name[:idx]
		}
		if name == "" {
			return fld.Name
		}

		return name
	})

	return &Adapter{validate: v}
}

// Validate implements [pipeline.Adapter]. Decode failures (wrong field
// types) and tag failures are both reported as issues; only a non-struct
// schema returns an error.
func (a *Adapter) Validate(ctx context.Context, schema any, value any) (pipeline.Result, error) {
	p, ok := schema.(prototype)
	if !ok {
		return pipeline.Result{}, fmt.Errorf("playground: schema must be built with Schema[T], got %T", schema)
	}
	if p.typ.Kind() != reflect.Struct {
		return pipeline.Result{}, fmt.Errorf("playground: schema type %s is not a struct", p.typ)
	}

	out := reflect.New(p.typ)
	if err := decode(value, out.Interface()); err != nil {
		return pipeline.Invalid(decodeIssues(err)...), nil
	}

	if err := a.validate.StructCtx(ctx, out.Interface()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return pipeline.Invalid(tagIssues(verrs)...), nil
		}

		return pipeline.Result{}, fmt.Errorf("playground validate: %w", err)
	}

	return pipeline.Valid(out.Elem().Interface()), nil
}

// decode maps the plain input value onto the struct. Weak typing is off so
// a JSON number never silently satisfies a string field.
func decode(value any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}

	return dec.Decode(value)
}

// decodeIssues converts mapstructure decode failures into issues. The
// joined error lines each describe one field.
func decodeIssues(err error) []pipeline.Issue {
	var merr *mapstructure.Error
	if !errors.As(err, &merr) {
		return []pipeline.Issue{{Message: err.Error()}}
	}

	issues := make([]pipeline.Issue, 0, len(merr.Errors))
	for _, line := range merr.Errors {
		issues = append(issues, pipeline.Issue{Message: line})
	}

	return issues
}

// tagIssues converts validator failures into issues with typed paths.
func tagIssues(verrs validator.ValidationErrors) []pipeline.Issue {
	issues := make([]pipeline.Issue, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if idx := strings.Index(ns, "."); idx != -1 {
			ns = ns[idx+1:]
		} else {
			ns = ""
		}
		issues = append(issues, pipeline.Issue{
			Path:    namespaceToPath(ns),
			Message: tagMessage(fe),
		})
	}

	return issues
}

// namespaceToPath splits a validator namespace like "items[2].name" into
// typed path segments.
func namespaceToPath(ns string) pipeline.Path {
	if ns == "" {
		return pipeline.Path{}
	}

	var path pipeline.Path
	for _, part := range strings.Split(ns, ".") {
		for {
			open := strings.Index(part, "[")
			if open == -1 {
				if part != "" {
					path = append(path, pipeline.Key(part))
				}
				break
			}
			if open > 0 {
				path = append(path, pipeline.Key(part[:open]))
			}
			closing := strings.Index(part, "]")
			if closing == -1 {
				path = append(path, pipeline.Key(part[open:]))
				break
			}
			if i, err := strconv.Atoi(part[open+1 : closing]); err == nil {
				path = append(path, pipeline.Index(i))
			} else {
				path = append(path, pipeline.Key(part[open+1:closing]))
			}
			part = part[closing+1:]
			if part == "" {
				break
			}
		}
	}

	return path
}

// tagMessage builds a human-readable message for a failed tag.
func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
