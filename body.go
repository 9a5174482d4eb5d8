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
	"io"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// Body decode failure messages, surfaced verbatim in 400 responses.
const (
	msgInvalidJSONBody        = "Invalid JSON body."
	msgInvalidFormData        = "Invalid Form Data."
	msgUnsupportedContentType = "Unsupported content type. Expected application/json, multipart/form-data, or application/x-www-form-urlencoded."
	msgBodyRequired           = "Request body is required."
)

// defaultMaxFormMemory bounds in-memory multipart parsing; larger parts
// spill to disk.
const defaultMaxFormMemory = 32 << 20

// FallbackMode controls how a body with an unrecognized content type is
// decoded when strict content-type checking is disabled.
type FallbackMode int

const (
	// FallbackJSONFirst attempts a JSON parse of the body text and falls
	// back to the coerced text on failure. This is the default.
	FallbackJSONFirst FallbackMode = iota

	// FallbackText returns the coerced body text without attempting JSON.
	FallbackText
)

// BodyError reports a request body that could not be decoded: unparseable,
// of an unsupported content type, or missing when required. The route
// pipeline always maps it to a 400 response carrying Message, regardless of
// any custom error mapper.
type BodyError struct {
	Message string
	Err     error
}

// Error returns the message, with the underlying cause when present.
func (e *BodyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the underlying cause.
func (e *BodyError) Unwrap() error {
	return e.Err
}

// bodyOptions configures body decoding for one pipeline.
type bodyOptions struct {
	strict        bool
	allowEmpty    bool
	emptyValue    any
	hasEmptyValue bool
	fallback      FallbackMode
	coerce        CoerceFunc
	arrays        ArrayMode
	pick          PickMode
}

func defaultBodyOptions() bodyOptions {
	return bodyOptions{strict: true, allowEmpty: true}
}

// decodeBody decodes the request body by lowercased content type. When no
// body schema was declared the transport body is never touched, so a
// single-read stream stays available to the caller.
func decodeBody(r *http.Request, declared bool, o bodyOptions) (any, error) {
	if !declared {
		return Data{}, nil
	}

	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	switch {
	case strings.Contains(contentType, "application/json"):
		raw, err := readBody(r)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return emptyBodyValue(o)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &BodyError{Message: msgInvalidJSONBody, Err: err}
		}
		return v, nil

	case strings.Contains(contentType, "multipart/form-data"),
		strings.Contains(contentType, "application/x-www-form-urlencoded"):
		values, err := formValues(r, contentType)
		if err != nil {
			return nil, &BodyError{Message: msgInvalidFormData, Err: err}
		}
		if len(values) == 0 {
			return emptyBodyValue(o)
		}
		out := make(Data, len(values))
		for key, vals := range values {
			coerced := make([]any, len(vals))
			for i, raw := range vals {
				coerced[i] = coerceValue(raw, key, o.coerce)
			}
			out[key] = selectValues(coerced, o.arrays, o.pick)
		}
		return out, nil

	default:
		if o.strict {
			return nil, &BodyError{Message: msgUnsupportedContentType}
		}
		raw, err := readBody(r)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return emptyBodyValue(o)
		}
		text := coerceValue(string(raw), "", o.coerce)
		if o.fallback == FallbackText {
			return text, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return text, nil
		}
		return v, nil
	}
}

// emptyBodyValue resolves a zero-length (or zero-entry) body. The
// configured empty value wins over the default empty mapping only when one
// was explicitly supplied; an explicit nil counts as supplied.
func emptyBodyValue(o bodyOptions) (any, error) {
	if !o.allowEmpty {
		return nil, &BodyError{Message: msgBodyRequired}
	}
	if o.hasEmptyValue {
		return o.emptyValue, nil
	}

	return Data{}, nil
}

// formValues extracts submitted form values for both multipart and
// urlencoded payloads. The URL query string is never mixed in.
func formValues(r *http.Request, contentType string) (url.Values, error) {
	if strings.Contains(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(defaultMaxFormMemory); err != nil {
			return nil, err
		}

		return url.Values(r.MultipartForm.Value), nil
	}

	raw, err := readBody(r)
	if err != nil {
		return nil, err
	}

	return url.ParseQuery(string(raw))
}

// readBody reads the full transport body. A nil body reads as empty.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	return raw, nil
}
