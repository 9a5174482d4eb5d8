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
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoActionHandler(ctx context.Context, req *ActionRequest) (any, error) {
	return req.Input, nil
}

func TestAction_Success(t *testing.T) {
	t.Parallel()

	h := NewAction().Handler(echoActionHandler)
	res := h(context.Background(), map[string]any{"name": "gopher"})

	require.True(t, res.Succeeded())
	assert.Equal(t, map[string]any{"name": "gopher"}, res.Data)
	assert.Nil(t, res.ValidationErrors)
	assert.Empty(t, res.ServerError)
}

func TestAction_InputValidation(t *testing.T) {
	t.Parallel()

	t.Run("failure returns validation errors without faulting", func(t *testing.T) {
		t.Parallel()

		schema := func(any) Result {
			return Invalid(NewIssue("must be at least 3 characters", Key("items"), Index(0), Key("name")))
		}
		h := NewAction().WithAdapter(testAdapter).Input(schema).Handler(echoActionHandler)

		res := h(context.Background(), map[string]any{"items": []any{map[string]any{"name": "a"}}})
		require.True(t, res.Invalid())
		assert.Equal(t,
			[]string{"must be at least 3 characters"},
			res.ValidationErrors.FieldErrors["items.0.name"])
		assert.Equal(t, []string{}, res.ValidationErrors.FormErrors)
	})

	t.Run("handler receives transformed input", func(t *testing.T) {
		t.Parallel()

		schema := func(any) Result { return Valid("transformed") }
		var seen any
		h := NewAction().WithAdapter(testAdapter).Input(schema).
			Handler(func(_ context.Context, req *ActionRequest) (any, error) {
				seen = req.Input
				return "ok", nil
			})

		res := h(context.Background(), "raw")
		require.True(t, res.Succeeded())
		assert.Equal(t, "transformed", seen)
	})

	t.Run("schema without adapter is a server error", func(t *testing.T) {
		t.Parallel()

		h := NewAction().Input(rejectAll("f")).Handler(echoActionHandler)
		res := h(context.Background(), nil)
		require.True(t, res.Failed())
		assert.Equal(t, DefaultServerErrorMessage, res.ServerError)
	})
}

func TestAction_OutputValidation(t *testing.T) {
	t.Parallel()

	t.Run("invalid output maps to server error", func(t *testing.T) {
		t.Parallel()

		var mapped error
		h := NewAction().
			WithAdapter(testAdapter).
			Output(rejectAll("out")).
			WithServerError(func(err error) string {
				mapped = err
				return "output rejected"
			}).
			Handler(echoActionHandler)

		res := h(context.Background(), "anything")
		require.True(t, res.Failed())
		assert.Equal(t, "output rejected", res.ServerError)
		assert.ErrorIs(t, mapped, ErrInvalidActionOutput)
	})

	t.Run("valid output may be transformed", func(t *testing.T) {
		t.Parallel()

		schema := func(any) Result { return Valid("schema says hi") }
		h := NewAction().WithAdapter(testAdapter).Output(schema).Handler(echoActionHandler)

		res := h(context.Background(), "ignored")
		require.True(t, res.Succeeded())
		assert.Equal(t, "schema says hi", res.Data)
	})
}

func TestAction_MiddlewareChain(t *testing.T) {
	t.Parallel()

	t.Run("patches merge left to right", func(t *testing.T) {
		t.Parallel()

		var final Data
		h := NewAction().
			WithData(Data{"base": true}).
			Use(
				func(_ context.Context, req *MiddlewareRequest) (ActionResult, error) {
					return req.Next(Data{"x": 1})
				},
				func(_ context.Context, req *MiddlewareRequest) (ActionResult, error) {
					return req.Next(Data{"x": 2, "y": 1})
				},
			).
			Handler(func(_ context.Context, req *ActionRequest) (any, error) {
				final = req.Ctx
				return "ok", nil
			})

		res := h(context.Background(), nil)
		require.True(t, res.Succeeded())
		assert.Equal(t, Data{"base": true, "x": 2, "y": 1}, final)
	})

	t.Run("returning a result without next short-circuits", func(t *testing.T) {
		t.Parallel()

		handlerCalls := 0
		h := NewAction().
			Use(func(context.Context, *MiddlewareRequest) (ActionResult, error) {
				return ActionInvalid(Normalize([]Issue{NewIssue("denied")})), nil
			}).
			Handler(func(context.Context, *ActionRequest) (any, error) {
				handlerCalls++
				return "never", nil
			})

		res := h(context.Background(), nil)
		require.True(t, res.Invalid())
		assert.Equal(t, []string{"denied"}, res.ValidationErrors.FormErrors)
		assert.Zero(t, handlerCalls)
	})

	t.Run("double next maps to server error", func(t *testing.T) {
		t.Parallel()

		h := NewAction().
			Use(func(_ context.Context, req *MiddlewareRequest) (ActionResult, error) {
				if _, err := req.Next(nil); err != nil {
					return ActionResult{}, err
				}
				return req.Next(nil)
			}).
			Handler(echoActionHandler)

		res := h(context.Background(), nil)
		require.True(t, res.Failed())
		assert.Equal(t, DefaultServerErrorMessage, res.ServerError)
	})

	t.Run("zero result is middleware misuse", func(t *testing.T) {
		t.Parallel()

		var mapped error
		h := NewAction().
			WithServerError(func(err error) string {
				mapped = err
				return err.Error()
			}).
			Use(func(context.Context, *MiddlewareRequest) (ActionResult, error) {
				return ActionResult{}, nil
			}).
			Handler(echoActionHandler)

		res := h(context.Background(), nil)
		require.True(t, res.Failed())
		assert.ErrorIs(t, mapped, ErrInvalidMiddlewareResult)
	})

	t.Run("metadata reaches middleware and handler", func(t *testing.T) {
		t.Parallel()

		var fromMW, fromHandler Metadata
		h := NewAction().
			WithMetadata(Metadata{"action": "create-user"}).
			Use(func(_ context.Context, req *MiddlewareRequest) (ActionResult, error) {
				fromMW = req.Metadata
				return req.Next(nil)
			}).
			Handler(func(_ context.Context, req *ActionRequest) (any, error) {
				fromHandler = req.Metadata
				return "ok", nil
			})

		h(context.Background(), nil)
		assert.Equal(t, Metadata{"action": "create-user"}, fromMW)
		assert.Equal(t, Metadata{"action": "create-user"}, fromHandler)
	})
}

func TestAction_FaultPolicy(t *testing.T) {
	t.Parallel()

	t.Run("handler error uses default message", func(t *testing.T) {
		t.Parallel()

		h := NewAction().Handler(func(context.Context, *ActionRequest) (any, error) {
			return nil, errors.New("database is down")
		})
		res := h(context.Background(), nil)
		require.True(t, res.Failed())
		assert.Equal(t, DefaultServerErrorMessage, res.ServerError)
	})

	t.Run("mapper output wins when non-empty", func(t *testing.T) {
		t.Parallel()

		h := NewAction().
			WithServerError(func(err error) string { return "mapped: " + err.Error() }).
			Handler(func(context.Context, *ActionRequest) (any, error) {
				return nil, errors.New("boom")
			})
		res := h(context.Background(), nil)
		assert.Equal(t, "mapped: boom", res.ServerError)
	})

	t.Run("empty mapper output falls back to default", func(t *testing.T) {
		t.Parallel()

		h := NewAction().
			WithServerError(func(error) string { return "" }).
			Handler(func(context.Context, *ActionRequest) (any, error) {
				return nil, errors.New("boom")
			})
		res := h(context.Background(), nil)
		assert.Equal(t, DefaultServerErrorMessage, res.ServerError)
	})

	t.Run("panicking mapper is swallowed", func(t *testing.T) {
		t.Parallel()

		h := NewAction().
			WithServerError(func(error) string { panic("mapper broke") }).
			Handler(func(context.Context, *ActionRequest) (any, error) {
				return nil, errors.New("boom")
			})
		res := h(context.Background(), nil)
		require.True(t, res.Failed())
		assert.Equal(t, DefaultServerErrorMessage, res.ServerError)
	})

	t.Run("handler panic is recovered", func(t *testing.T) {
		t.Parallel()

		h := NewAction().Handler(func(context.Context, *ActionRequest) (any, error) {
			panic("boom")
		})
		res := h(context.Background(), nil)
		require.True(t, res.Failed())
	})
}

func TestAction_ImmutableBranching(t *testing.T) {
	t.Parallel()

	base := NewAction().WithAdapter(testAdapter)
	strict := base.Input(rejectAll("f"))

	baseRes := base.Handler(echoActionHandler)(context.Background(), "in")
	strictRes := strict.Handler(echoActionHandler)(context.Background(), "in")

	assert.True(t, baseRes.Succeeded())
	assert.True(t, strictRes.Invalid())
}

func TestActionResult_MarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("success emits only data", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal(ActionSuccess(map[string]any{"id": 1}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":{"id":1}}`, string(raw))
	})

	t.Run("validation errors emit normalized buckets", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal(ActionInvalid(Normalize([]Issue{NewIssue("bad", Key("f"))})))
		require.NoError(t, err)
		assert.JSONEq(t, `{"validationErrors":{"fieldErrors":{"f":["bad"]},"formErrors":[]}}`, string(raw))
	})

	t.Run("server error emits only the message", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal(ActionFailure("boom"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"serverError":"boom"}`, string(raw))
	})

	t.Run("zero result does not marshal", func(t *testing.T) {
		t.Parallel()

		_, err := json.Marshal(ActionResult{})
		assert.Error(t, err)
	})
}
