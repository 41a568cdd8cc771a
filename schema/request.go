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

package schema

import "net/http"

// A Request represents one GraphQL operation request after HTTP-to-GraphQL
// translation.  It makes no guarantees that the request is valid.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Extensions    map[string]interface{} `json:"extensions"`

	// Header is the originating HTTP request's header set.  It is shared,
	// read-only context for hooks and executors and is never marshalled.
	Header http.Header `json:"-"`

	// QueryOnly is set by the translator for GET requests: after the
	// operation kind is known, anything other than a query is rejected
	// with a 405 before execution.
	QueryOnly bool `json:"-"`
}
