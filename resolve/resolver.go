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

// Package resolve runs one GraphQL operation end-to-end: cache lookup or
// parse, validation, the GET-only-queries checkpoint, hooks, execution and
// response assembly.
package resolve

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	otrace "go.opencensus.io/trace"

	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/graphyte-io/graphyte/cache"
	"github.com/graphyte-io/graphyte/schema"
	"github.com/graphyte-io/graphyte/x"
)

// ResponseMeta is one operation's opinion about the HTTP response being
// built: headers to set and, optionally, a status code.  StatusCode zero
// means "no opinion"; the batch coordinator defaults the merged response to
// 200 at the very end.
type ResponseMeta struct {
	Headers    *x.Headers
	StatusCode int
}

// NewResponseMeta returns an empty ResponseMeta.
func NewResponseMeta() *ResponseMeta {
	return &ResponseMeta{Headers: x.NewHeaders()}
}

// RequestResolver can process one GraphQL operation request and produce a
// GraphQL response plus HTTP response metadata.
type RequestResolver struct {
	schema    *schema.Schema
	executor  Executor
	store     cache.Store // nil when document caching is disabled
	hooks     Hooks
	formatter schema.ErrorFormatter
}

// New creates a RequestResolver.  A nil store disables document caching:
// every request re-parses.  A nil hooks falls back to NopHooks.
func New(s *schema.Schema, e Executor, store cache.Store, hooks Hooks,
	formatter schema.ErrorFormatter) *RequestResolver {

	if hooks == nil {
		hooks = NopHooks{}
	}
	return &RequestResolver{
		schema:    s,
		executor:  e,
		store:     store,
		hooks:     hooks,
		formatter: formatter,
	}
}

// errorOnly builds the error-only response for a failure before execution:
// no data key, and a 400 status unless a hook already set one.
func (r *RequestResolver) errorOnly(err error, meta *ResponseMeta) *schema.Response {
	resp := schema.ErrorResponse(err)
	resp.Errors = schema.FormatErrors(resp.Errors, r.formatter)
	if meta.StatusCode == 0 {
		meta.StatusCode = http.StatusBadRequest
	}
	return resp
}

// Resolve runs req through the pipeline.  GraphQL-level failures (syntax,
// validation, execution errors) come back inside the response; the returned
// error is reserved for protocol-level failures, which the caller renders as
// a raw status and body and which abort a whole batch.
func (r *RequestResolver) Resolve(ctx context.Context, req *schema.Request,
	oc *OperationContext) (*schema.Response, *ResponseMeta, error) {

	ctx, span := otrace.StartSpan(ctx, "graphql.Resolve")
	defer span.End()

	meta := NewResponseMeta()

	if r == nil || r.schema == nil || r.executor == nil {
		glog.Errorf("[%s] Call to Resolve with nil RequestResolver internals", oc.RequestID)
		return nil, nil, x.InternalErrorf("Internal Server Error")
	}

	if err := r.hooks.RequestStart(ctx, req, meta); err != nil {
		return nil, nil, x.AsHttpError(err)
	}

	if req == nil || req.Query == "" {
		return nil, nil, x.ValidationErrorf("Must provide query string.")
	}

	if glog.V(3) {
		glog.Infof("[%s] Resolving GQL request: \n%s\n", oc.RequestID, req.Query)
	}

	doc, ok := r.cachedDocument(req.Query)
	if !ok {
		var errs error
		doc, errs = r.parseAndValidate(req)
		if errs != nil {
			return r.errorOnly(errs, meta), meta, nil
		}
		if err := r.storeDocument(req.Query, doc, oc); err != nil {
			return nil, nil, err
		}
	}

	op, gqlErrs := schema.Operation(doc, req.OperationName)
	if gqlErrs != nil {
		return r.errorOnly(gqlErrs, meta), meta, nil
	}

	// The GET checkpoint: operation kind is known, execution hasn't
	// started.  Anything but a query over GET is rejected here.
	if req.QueryOnly && op.Operation != ast.Query {
		return nil, nil, x.MethodNotAllowedError("POST",
			"GET requests only support query operations.")
	}

	if err := r.hooks.OperationResolved(ctx, req, op, meta); err != nil {
		return nil, nil, x.AsHttpError(err)
	}

	policy := NewCachePolicy()
	res := r.executor.Execute(ctx, ExecuteParams{
		Schema:        r.schema,
		Document:      doc,
		Operation:     op,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		Request:       req,
		CachePolicy:   policy,
		Op:            oc,
	})
	if res == nil {
		glog.Errorf("[%s] Executor returned nil result", oc.RequestID)
		return nil, nil, x.InternalErrorf("Internal Server Error")
	}
	if len(res.Incremental) > 0 {
		// Deliberately unimplemented: failing loudly beats silently
		// truncating a streamed response.
		return nil, nil, x.InternalErrorf(
			"Incremental delivery (@defer/@stream) is not supported by this server.")
	}

	resp := (&schema.Response{Extensions: res.Extensions}).WithData(res.Data)
	resp.Errors = schema.FormatErrors(res.Errors, r.formatter)

	if policy.Restricted() {
		meta.Headers.Set("cache-control", policy.CacheControl())
	}

	return resp, meta, nil
}

// cachedDocument looks req's query up in the document store.  Store
// failures of any kind are a miss, never fatal.
func (r *RequestResolver) cachedDocument(query string) (*ast.QueryDocument, bool) {
	if r.store == nil {
		return nil, false
	}
	return r.store.Get(cache.Key(query))
}

// parseAndValidate parses query text into a document and validates it
// against the schema.  Failures are GraphQL errors for the response body.
func (r *RequestResolver) parseAndValidate(req *schema.Request) (*ast.QueryDocument, error) {
	doc, errs := schema.Parse(req.Query)
	if errs != nil {
		return nil, errs
	}
	if errs := r.schema.Validate(doc, req.Variables); len(errs) != 0 {
		return nil, errs
	}
	return doc, nil
}

// storeDocument populates the cache with a freshly parsed and validated
// document.  A sizing failure is an internal error for this one operation;
// the store itself stays healthy.
func (r *RequestResolver) storeDocument(query string, doc *ast.QueryDocument,
	oc *OperationContext) error {

	if r.store == nil {
		return nil
	}
	if err := r.store.Set(cache.Key(query), doc); err != nil {
		glog.Errorf("[%s] %+v", oc.RequestID, err)
		return x.InternalErrorf("Internal Server Error")
	}
	return nil
}
