/*
 * Copyright 2025 Graphyte Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package resolve

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"

	"github.com/graphyte-io/graphyte/cache"
	"github.com/graphyte-io/graphyte/schema"
	"github.com/graphyte-io/graphyte/x"
)

const testSDL = `
	type Query {
		hello: String
		me: User
	}
	type User {
		name: String
	}
	type Mutation {
		setName(name: String): User
	}`

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.FromString(testSDL)
	require.NoError(t, err)
	return s
}

// stubExecutor answers every execution with a fixed result and counts calls.
type stubExecutor struct {
	mu     sync.Mutex
	calls  int
	result *Result
	run    func(ctx context.Context, p ExecuteParams) *Result
}

func (e *stubExecutor) Execute(ctx context.Context, p ExecuteParams) *Result {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.run != nil {
		return e.run(ctx, p)
	}
	return e.result
}

func (e *stubExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// countingStore wraps an LRU and counts Get/Set calls.
type countingStore struct {
	inner cache.Store
	mu    sync.Mutex
	gets  int
	sets  int
}

func (c *countingStore) Get(key uint64) (*ast.QueryDocument, bool) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.inner.Get(key)
}

func (c *countingStore) Set(key uint64, doc *ast.QueryDocument) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.inner.Set(key, doc)
}

func (c *countingStore) Clear()           { c.inner.Clear() }
func (c *countingStore) TotalSize() int64 { return c.inner.TotalSize() }

func (c *countingStore) counts() (gets, sets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets, c.sets
}

func okResult(data string) *Result {
	return &Result{Data: json.RawMessage(data)}
}

func resolveOne(t *testing.T, rr *RequestResolver, req *schema.Request) (
	*schema.Response, *ResponseMeta, error) {
	t.Helper()
	return rr.Resolve(context.Background(), req, NewOperationContext("test"))
}

func TestResolveSuccess(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{"hello":"world"}`)}
	rr := New(testSchema(t), exec, nil, nil, nil)

	resp, meta, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`})
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"hello":"world"}}`, string(resp.Bytes()))
	assert.Zero(t, meta.StatusCode, "successful operations leave the status unset")
	assert.Equal(t, 1, exec.callCount())
}

func TestResolveMissingQueryIsProtocolError(t *testing.T) {
	rr := New(testSchema(t), &stubExecutor{}, nil, nil, nil)

	_, _, err := resolveOne(t, rr, &schema.Request{})
	require.Error(t, err)
	he := x.AsHttpError(err)
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
	assert.Equal(t, "Must provide query string.", he.Message)
}

func TestResolveSyntaxErrorOmitsDataKey(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{}`)}
	rr := New(testSchema(t), exec, nil, nil, nil)

	resp, meta, err := resolveOne(t, rr, &schema.Request{Query: `{ hello`})
	require.NoError(t, err)
	assert.NotContains(t, string(resp.Bytes()), `"data"`)
	assert.NotEmpty(t, resp.Errors)
	assert.Equal(t, http.StatusBadRequest, meta.StatusCode)
	assert.Zero(t, exec.callCount(), "execution must not be reached")
}

func TestResolveValidationErrorOmitsDataKey(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{}`)}
	rr := New(testSchema(t), exec, nil, nil, nil)

	resp, meta, err := resolveOne(t, rr, &schema.Request{Query: `{ nonexistent }`})
	require.NoError(t, err)
	assert.NotContains(t, string(resp.Bytes()), `"data"`)
	assert.Equal(t, http.StatusBadRequest, meta.StatusCode)
	assert.Zero(t, exec.callCount())
}

func TestResolveExecutionErrorKeepsDataKey(t *testing.T) {
	exec := &stubExecutor{result: &Result{
		Data:   nil,
		Errors: gqlerror.List{gqlerror.Errorf("resolver failed")},
	}}
	rr := New(testSchema(t), exec, nil, nil, nil)

	resp, _, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`})
	require.NoError(t, err)
	assert.Contains(t, string(resp.Bytes()), `"data":null`)
}

func TestResolveGetGuardRejectsMutation(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{}`)}
	rr := New(testSchema(t), exec, nil, nil, nil)

	_, _, err := resolveOne(t, rr, &schema.Request{
		Query:     `mutation { setName(name: "x") { name } }`,
		QueryOnly: true,
	})
	require.Error(t, err)
	he := x.AsHttpError(err)
	assert.Equal(t, http.StatusMethodNotAllowed, he.StatusCode)
	assert.Equal(t, "POST", he.Headers.Get("Allow"))
	assert.Zero(t, exec.callCount(), "guard fires before execution")
}

func TestResolveGetGuardAllowsQuery(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{"hello":"hi"}`)}
	rr := New(testSchema(t), exec, nil, nil, nil)

	_, _, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`, QueryOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, exec.callCount())
}

func TestResolveWarmCacheParsesOnce(t *testing.T) {
	store := &countingStore{inner: cache.NewLRU(cache.DefaultMaxBytes)}
	exec := &stubExecutor{result: okResult(`{"hello":"hi"}`)}
	rr := New(testSchema(t), exec, store, nil, nil)

	req := &schema.Request{Query: `{ hello }`}
	for i := 0; i < 2; i++ {
		_, _, err := resolveOne(t, rr, req)
		require.NoError(t, err)
	}

	gets, sets := store.counts()
	assert.GreaterOrEqual(t, gets, 2)
	assert.Equal(t, 1, sets)
	assert.Equal(t, 2, exec.callCount())
}

func TestResolveNilStoreNeverTouchesCache(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{"hello":"hi"}`)}
	rr := New(testSchema(t), exec, nil, nil, nil)

	for i := 0; i < 3; i++ {
		_, _, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, exec.callCount())
}

func TestResolveIncrementalDeliveryFailsLoudly(t *testing.T) {
	exec := &stubExecutor{result: &Result{
		Data:        json.RawMessage(`{"hello":"partial"}`),
		Incremental: []json.RawMessage{json.RawMessage(`{"more":true}`)},
	}}
	rr := New(testSchema(t), exec, nil, nil, nil)

	_, _, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`})
	require.Error(t, err)
	he := x.AsHttpError(err)
	assert.Equal(t, http.StatusInternalServerError, he.StatusCode)
	assert.Contains(t, he.Message, "Incremental delivery")
}

func TestResolveCachePolicyBecomesHeader(t *testing.T) {
	exec := &stubExecutor{run: func(ctx context.Context, p ExecuteParams) *Result {
		p.CachePolicy.Restrict(90*time.Second, ScopePrivate)
		return okResult(`{"me":{"name":"a"}}`)
	}}
	rr := New(testSchema(t), exec, nil, nil, nil)

	_, meta, err := resolveOne(t, rr, &schema.Request{Query: `{ me { name } }`})
	require.NoError(t, err)
	assert.Equal(t, "max-age=90, private", meta.Headers.Get("cache-control"))
}

func TestResolveErrorFormatterApplied(t *testing.T) {
	exec := &stubExecutor{result: &Result{
		Data: json.RawMessage(`null`),
		Errors: gqlerror.List{{
			Message:    "db connection string leaked",
			Extensions: map[string]interface{}{"code": "INTERNAL"},
		}},
	}}
	format := func(e *gqlerror.Error) *gqlerror.Error {
		return &gqlerror.Error{Message: "redacted"}
	}
	rr := New(testSchema(t), exec, nil, nil, schema.ErrorFormatter(format))

	resp, _, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`})
	require.NoError(t, err)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "redacted", resp.Errors[0].Message)
	assert.Equal(t, "INTERNAL", resp.Errors[0].Extensions["code"])
}

type statusHooks struct {
	NopHooks
	status int
}

func (h statusHooks) RequestStart(ctx context.Context, req *schema.Request,
	meta *ResponseMeta) error {
	meta.StatusCode = h.status
	return nil
}

func TestResolveHookStatusSurvivesPreExecutionFailure(t *testing.T) {
	rr := New(testSchema(t), &stubExecutor{}, nil, statusHooks{status: 418}, nil)

	_, meta, err := resolveOne(t, rr, &schema.Request{Query: `{ hello`})
	require.NoError(t, err)
	assert.Equal(t, 418, meta.StatusCode, "hook-set status beats the 400 default")
}

type abortHooks struct {
	NopHooks
}

func (abortHooks) OperationResolved(ctx context.Context, req *schema.Request,
	op *ast.OperationDefinition, meta *ResponseMeta) error {
	return x.ValidationErrorf("blocked by hook")
}

func TestResolveHookCanAbortWithProtocolError(t *testing.T) {
	exec := &stubExecutor{result: okResult(`{}`)}
	rr := New(testSchema(t), exec, nil, abortHooks{}, nil)

	_, _, err := resolveOne(t, rr, &schema.Request{Query: `{ hello }`})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, x.AsHttpError(err).StatusCode)
	assert.Zero(t, exec.callCount())
}

func TestOperationContextDoesNotLeakAcrossOps(t *testing.T) {
	a := NewOperationContext("req")
	b := NewOperationContext("req")

	a.MarkResolverRun()
	assert.True(t, a.ResolverRan())
	assert.False(t, b.ResolverRan())
}
