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

// Package api carries the request-scoped plumbing every GraphQL request
// gets: a request ID and panic recovery.
package api

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type contextKey string

const requestIDKey contextKey = "graphyte.requestID"

// WithRequestID tags every request's context with a fresh UUID, so that log
// lines for one request can be tied together.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), requestIDKey, uuid.New().String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the request ID recorded in ctx, or "unknown" if the
// context never passed through WithRequestID.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// PanicHandler catches panics so that we recover from panics during GraphQL
// request execution and return an appropriate error.
//
// If PanicHandler recovers from a panic, it logs a stack trace, creates an
// error and applies fn to the error.
func PanicHandler(requestID string, fn func(error)) {
	if err := recover(); err != nil {
		glog.Errorf("[%s] panic: %s.\n trace: %s", requestID, err, string(debug.Stack()))

		fn(errors.Errorf("[%s] Internal Server Error - a panic was trapped.  "+
			"This indicates a bug in the GraphQL server.  A stack trace was logged.",
			requestID))
	}
}
