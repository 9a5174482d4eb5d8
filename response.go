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
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// msgInternalServerError is the fixed body message of the default 500
// response.
const msgInternalServerError = "Internal server error"

// Response is a transport-agnostic HTTP response produced by a route
// pipeline. Hosts integrate it with their own writer via [Response.Write]
// or by reading the fields directly.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse builds a Response with the given status and raw body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: http.Header{}, Body: body}
}

// JSON builds a Response with a JSON-encoded body and a JSON content-type
// header. A value that cannot be marshaled degrades to the fixed 500
// response, honoring the rule that a pipeline never surfaces a raw fault.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return internalErrorResponse()
	}

	resp := NewResponse(status, body)
	resp.Header.Set("Content-Type", "application/json")

	return resp
}

// Text builds a plain-text Response.
func Text(status int, s string) *Response {
	resp := NewResponse(status, []byte(s))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")

	return resp
}

// Write writes the response to w: headers first, then status, then body.
func (resp *Response) Write(w http.ResponseWriter) error {
	for key, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := w.Write(resp.Body); err != nil {
		return fmt.Errorf("write response body: %w", err)
	}

	return nil
}

// messageBody is the JSON shape of message-only error responses.
type messageBody struct {
	Message string `json:"message"`
}

// validationBody is the JSON shape of default validation failure responses.
type validationBody struct {
	Message string  `json:"message"`
	Issues  []Issue `json:"issues"`
}

// messageResponse builds {"message": ...} with the given status.
func messageResponse(status int, message string) *Response {
	return JSON(status, messageBody{Message: message})
}

// validationResponse builds the default 400 response for a failed category.
func validationResponse(kind InputKind, issues []Issue) *Response {
	return JSON(http.StatusBadRequest, validationBody{
		Message: kind.message(),
		Issues:  issues,
	})
}

// internalErrorResponse builds the fixed 500 response without going through
// the JSON marshaler.
func internalErrorResponse() *Response {
	resp := NewResponse(http.StatusInternalServerError,
		[]byte(`{"message":"`+msgInternalServerError+`"}`))
	resp.Header.Set("Content-Type", "application/json")

	return resp
}
