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

package pipeline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	json "github.com/goccy/go-json"

	"rivaas.dev/pipeline"
	"rivaas.dev/pipeline/jsonschema"
	"rivaas.dev/pipeline/playground"
)

// ExampleRoute shows a JSON route validated with a JSON Schema, served on
// the standard mux.
func ExampleRoute() {
	schema := `{
		"type": "object",
		"properties": {"field": {"type": "string"}},
		"required": ["field"]
	}`

	handler := pipeline.NewRoute().
		WithAdapter(jsonschema.New()).
		Body(schema).
		Handler(func(r *http.Request, c *pipeline.Context) (*pipeline.Response, error) {
			return pipeline.JSON(http.StatusOK, c.Body), nil
		})

	mux := http.NewServeMux()
	mux.Handle("POST /echo", pipeline.HTTPHandler(handler))

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"field":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	fmt.Println(rec.Code, rec.Body.String())
	// Output: 200 {"field":"hello"}
}

// ExampleAction shows an action validated against struct tags.
func ExampleAction() {
	type CreateUser struct {
		Name string `json:"name" validate:"required,min=3"`
	}

	act := pipeline.NewAction().
		WithAdapter(playground.New()).
		Input(playground.Schema[CreateUser]()).
		Handler(func(ctx context.Context, req *pipeline.ActionRequest) (any, error) {
			user := req.Input.(CreateUser)
			return map[string]any{"created": user.Name}, nil
		})

	res := act(context.Background(), map[string]any{"name": "gopher"})
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	// Output: {"data":{"created":"gopher"}}
}

// ExampleRoute_validationFailure shows the default 400 response when the
// body fails its schema.
func ExampleRoute_validationFailure() {
	schema := `{
		"type": "object",
		"properties": {"field": {"type": "string"}}
	}`

	handler := pipeline.NewRoute().
		WithAdapter(jsonschema.New()).
		Body(schema).
		Handler(func(r *http.Request, c *pipeline.Context) (*pipeline.Response, error) {
			return pipeline.JSON(http.StatusOK, c.Body), nil
		})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":123}`))
	req.Header.Set("Content-Type", "application/json")
	resp := handler(req, pipeline.RouteContext{})

	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	fmt.Println(resp.Status, body.Message)
	// Output: 400 Invalid body
}
