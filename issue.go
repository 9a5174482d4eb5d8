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
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Segment is one element of an issue path: either an object key or an array
// index. Construct segments with [Key] and [Index].
type Segment struct {
	key     string
	index   int
	indexed bool
}

// Key returns a Segment addressing an object field.
func Key(name string) Segment {
	return Segment{key: name}
}

// Index returns a Segment addressing an array element.
func Index(i int) Segment {
	return Segment{index: i, indexed: true}
}

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool {
	return s.indexed
}

// String returns the key, or the decimal index for array segments.
func (s Segment) String() string {
	if s.indexed {
		return strconv.Itoa(s.index)
	}

	return s.key
}

// MarshalJSON encodes key segments as JSON strings and index segments as
// JSON numbers.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.indexed {
		return json.Marshal(s.index)
	}

	return json.Marshal(s.key)
}

// Path locates the value an [Issue] applies to. An empty Path means the
// issue applies to the whole value.
type Path []Segment

// String returns the dot-joined path, e.g. "items.2.name".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}

	return strings.Join(parts, ".")
}

// MarshalJSON encodes a nil Path as an empty array rather than null.
func (p Path) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]Segment(p))
}

// Issue is a single validation complaint with an optional field path and a
// human-readable message.
type Issue struct {
	Path    Path   `json:"path"`
	Message string `json:"message"`
}

// NewIssue builds an Issue for the value at the given path segments. With no
// segments the issue applies to the whole value.
func NewIssue(message string, segments ...Segment) Issue {
	return Issue{Path: Path(segments), Message: message}
}

// ValidationErrors is the normalized form of a list of issues. Issues with a
// non-empty path are bucketed into FieldErrors keyed by the dot-joined path;
// issues with an empty path land in FormErrors. Message order within a
// bucket follows issue order.
type ValidationErrors struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
	FormErrors  []string            `json:"formErrors"`

	// paths records FieldErrors keys in first-seen order.
	paths []string
}

// Normalize buckets issues into a [ValidationErrors]. FieldErrors and
// FormErrors are always non-nil so the result marshals as {} and [] rather
// than null.
func Normalize(issues []Issue) *ValidationErrors {
	ve := &ValidationErrors{
		FieldErrors: make(map[string][]string),
		FormErrors:  []string{},
	}
	for _, issue := range issues {
		if len(issue.Path) == 0 {
			ve.FormErrors = append(ve.FormErrors, issue.Message)
			continue
		}

		key := issue.Path.String()
		if _, seen := ve.FieldErrors[key]; !seen {
			ve.paths = append(ve.paths, key)
		}
		ve.FieldErrors[key] = append(ve.FieldErrors[key], issue.Message)
	}

	return ve
}

// Paths returns the FieldErrors keys in first-seen order.
func (ve *ValidationErrors) Paths() []string {
	out := make([]string, len(ve.paths))
	copy(out, ve.paths)

	return out
}

// HasErrors reports whether any field or form error is present.
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.FieldErrors) > 0 || len(ve.FormErrors) > 0
}
