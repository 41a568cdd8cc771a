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
	"sync/atomic"
	"time"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"

	"github.com/graphyte-io/graphyte/schema"
)

// An Executor runs one validated GraphQL operation against whatever backs
// the schema.  It is the boundary of this package: everything behind it -
// resolvers, data sources, federation - is somebody else's problem.
//
// Executors report failures as GraphQL errors inside the Result.  A panic
// is treated as an internal server error and aborts the whole request.
type Executor interface {
	Execute(ctx context.Context, p ExecuteParams) *Result
}

// ExecuteParams is everything an Executor gets for one operation.
type ExecuteParams struct {
	Schema        *schema.Schema
	Document      *ast.QueryDocument
	Operation     *ast.OperationDefinition
	OperationName string
	Variables     map[string]interface{}

	// Request is the translated operation request, read-only.
	Request *schema.Request

	// CachePolicy is this execution's mutable cacheability accumulator.
	// Resolvers may only restrict it.
	CachePolicy *CachePolicy

	// Op is the per-operation companion state.  Each operation of a batch
	// gets its own, so instrumentation never leaks across siblings.
	Op *OperationContext
}

// Result is what an Executor produces: data, errors and extensions as the
// GraphQL response spec defines them.
type Result struct {
	Data       json.RawMessage
	Errors     gqlerror.List
	Extensions map[string]interface{}

	// Incremental carries @defer/@stream payloads.  This core does not
	// implement incremental delivery: a non-empty slice is a hard internal
	// error, never a silently truncated response.
	Incremental []json.RawMessage
}

// An OperationContext is the request-scoped companion state for exactly one
// operation.  The caller's context.Context stays shared and read-only; any
// state an executor wants to scribble on lives here instead.
type OperationContext struct {
	RequestID string
	StartTime time.Time

	resolverRan atomic.Bool
}

// NewOperationContext returns a fresh OperationContext for one operation of
// a request.
func NewOperationContext(requestID string) *OperationContext {
	return &OperationContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// MarkResolverRun records that at least one resolver executed.
func (oc *OperationContext) MarkResolverRun() {
	if oc != nil {
		oc.resolverRan.Store(true)
	}
}

// ResolverRan reports whether any resolver executed for this operation.
func (oc *OperationContext) ResolverRan() bool {
	return oc != nil && oc.resolverRan.Load()
}
