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

	"github.com/dgraph-io/gqlparser/v2/ast"

	"github.com/graphyte-io/graphyte/schema"
)

// Hooks get called at defined checkpoints of each operation's pipeline.  A
// returned error short-circuits that operation: an *x.HttpError renders as
// is, anything else becomes a 500.  Hooks may set headers or a status code
// on meta; an explicit status survives the pipeline's defaulting.
type Hooks interface {
	// RequestStart runs before the operation's query is parsed.
	RequestStart(ctx context.Context, req *schema.Request, meta *ResponseMeta) error

	// OperationResolved runs once the operation kind and name are known,
	// after validation and before execution.
	OperationResolved(ctx context.Context, req *schema.Request,
		op *ast.OperationDefinition, meta *ResponseMeta) error
}

// NopHooks is the default no-op Hooks.
type NopHooks struct{}

func (NopHooks) RequestStart(context.Context, *schema.Request, *ResponseMeta) error {
	return nil
}

func (NopHooks) OperationResolved(context.Context, *schema.Request,
	*ast.OperationDefinition, *ResponseMeta) error {
	return nil
}
