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

// GraphQL spec on response is here:
// https://graphql.github.io/graphql-spec/June2018/#sec-Response
//
// Key points:
//
// - If an error was encountered before execution begins, the data entry
//   should not be present in the result.
//
// - If an error was encountered during execution that prevented a valid
//   response, the data entry should be null.
//
// - If there's errors and data, both are returned.

import (
	"encoding/json"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/dgraph-io/gqlparser/v2/gqlerror"
)

// Response represents a GraphQL response.
type Response struct {
	Errors     gqlerror.List
	Data       json.RawMessage
	Extensions map[string]interface{}

	// executed records whether the request reached the execution stage.
	// Responses that failed before execution omit the data key entirely;
	// executed responses always carry one, null if need be.
	executed bool
}

// ErrorResponse formats err as a list of GraphQL errors and builds a
// response with that error list and no data entry.
func ErrorResponse(err error) *Response {
	return &Response{Errors: AsGQLErrors(err)}
}

// ErrorResponsef returns a Response containing a single GraphQL error with
// a message obtained by Sprintf-ing the arguments.
func ErrorResponsef(format string, args ...interface{}) *Response {
	return &Response{
		Errors: gqlerror.List{gqlerror.Errorf(format, args...)},
	}
}

// WithData marks r as executed and records data.  A nil data serializes as
// "data": null, which distinguishes "executed and failed" from "failed
// before execution" (no data key at all).
func (r *Response) WithData(data json.RawMessage) *Response {
	r.executed = true
	r.Data = data
	return r
}

// WithError appends the GraphQL errors from err to r.
func (r *Response) WithError(err error) {
	r.Errors = append(r.Errors, AsGQLErrors(err)...)
}

// Executed reports whether r reached the execution stage.
func (r *Response) Executed() bool {
	return r != nil && r.executed
}

// Bytes serializes r as unindented JSON.  The field order errors, data,
// extensions is a wire-format contract, not an accident of marshalling.
func (r *Response) Bytes() []byte {
	if r == nil {
		return []byte(`{"errors":[{"message":"Internal error - no response to write."}],"data":null}`)
	}

	data := r.Data
	if r.executed && len(data) == 0 {
		data = json.RawMessage("null")
	}

	js, err := json.Marshal(struct {
		Errors     gqlerror.List          `json:"errors,omitempty"`
		Data       json.RawMessage        `json:"data,omitempty"`
		Extensions map[string]interface{} `json:"extensions,omitempty"`
	}{
		Errors:     r.Errors,
		Data:       data,
		Extensions: r.Extensions,
	})

	if err != nil {
		msg := "Internal error - failed to marshal a valid JSON response"
		glog.Errorf("%+v", errors.Wrap(err, msg))
		js = []byte(`{"errors":[{"message":"` + msg + `"}],"data":null}`)
	}
	return js
}

// WriteTo writes the GraphQL response as unindented JSON to w and returns
// the number of bytes written and error, if any.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	i, err := w.Write(r.Bytes())
	return int64(i), err
}
