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

package x

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// An HttpError is a protocol-level failure: it happened before, or outside,
// normal GraphQL error reporting, so it renders as a raw HTTP status, headers
// and body rather than inside a GraphQL JSON envelope.  An HttpError from any
// operation of a batch aborts the whole batch.
type HttpError struct {
	Message    string
	StatusCode int
	Headers    *Headers
}

func (e *HttpError) Error() string {
	return e.Message
}

// WithHeader returns e with key/value added to its response headers.
func (e *HttpError) WithHeader(key, value string) *HttpError {
	if e.Headers == nil {
		e.Headers = NewHeaders()
	}
	e.Headers.Set(key, value)
	return e
}

// ValidationErrorf builds a 400 protocol error for malformed
// HTTP-to-GraphQL translation input: bad body shape, bad JSON, or wrong
// field types.
func ValidationErrorf(format string, args ...interface{}) *HttpError {
	return &HttpError{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

// MethodNotAllowedError builds a 405 protocol error carrying an Allow
// header listing the methods the caller should have used.
func MethodNotAllowedError(allow, format string, args ...interface{}) *HttpError {
	e := &HttpError{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusMethodNotAllowed,
	}
	return e.WithHeader("Allow", allow)
}

// InternalErrorf builds a 500 protocol error.  The formatted message is what
// reaches the wire; anything sensitive belongs in the log, not here.
func InternalErrorf(format string, args ...interface{}) *HttpError {
	return &HttpError{
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusInternalServerError,
	}
}

// AsHttpError classifies err.  A *HttpError comes back as is; anything else
// is wrapped as a generic 500 so that raw internal errors and stack traces
// never leak into an HTTP body.
func AsHttpError(err error) *HttpError {
	if err == nil {
		return nil
	}
	var he *HttpError
	if errors.As(err, &he) {
		return he
	}
	return InternalErrorf("Internal Server Error")
}
