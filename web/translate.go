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

package web

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/graphyte-io/graphyte/schema"
	"github.com/graphyte-io/graphyte/x"
)

const postBodyMsg = "POST body missing, invalid Content-Type, or JSON object has no keys."

// GraphQL servers should serve both GET and POST
// https://graphql.org/learn/serving-over-http/
//
// GET should be like
// http://myapi/graphql?query={me{name}}
//
// POST should have a json content body like
// {
//   "query": "...",
//   "operationName": "...",
//   "variables": { "myVariable": "someValue", ... }
// }
// or a JSON array of such objects, which is a batch.

// fieldState is the outcome of extracting one request field: it was absent,
// present with the right type, or present with the wrong type.  Extraction
// never coerces.
type fieldState int

const (
	fieldAbsent fieldState = iota
	fieldValid
	fieldInvalid
)

type gzreadCloser struct {
	*gzip.Reader
	io.Closer
}

func (gz gzreadCloser) Close() error {
	if err := gz.Reader.Close(); err != nil {
		return err
	}
	return gz.Closer.Close()
}

// Translate parses an HTTP request into the GraphQL operation requests it
// carries.  A GET request carries exactly one; a POST request carries one
// per element of its array body, or one for a plain object body.  The bool
// result says whether the input was an array batch.  All failures are
// protocol-level: *x.HttpError with a 400 or 405 status.
func Translate(r *http.Request) ([]*schema.Request, bool, error) {
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, false, x.ValidationErrorf("Unable to parse gzip: %s", err)
		}
		r.Body = gzreadCloser{zr, r.Body}
	}

	switch r.Method {
	case http.MethodGet:
		req, err := translateGet(r)
		if err != nil {
			return nil, false, err
		}
		return []*schema.Request{req}, false, nil
	case http.MethodPost:
		return translatePost(r)
	default:
		return nil, false, x.MethodNotAllowedError("GET, POST",
			"GraphQL queries must be GET or POST requests.")
	}
}

func translateGet(r *http.Request) (*schema.Request, error) {
	params := r.URL.Query()
	if len(params) == 0 {
		return nil, x.ValidationErrorf("GET query missing.")
	}

	req := &schema.Request{
		Query:         params.Get("query"),
		OperationName: params.Get("operationName"),
		Header:        r.Header,
		QueryOnly:     true,
	}

	variables, err := jsonObjectParam("Variables", params.Get("variables"))
	if err != nil {
		return nil, err
	}
	req.Variables = variables

	extensions, err := jsonObjectParam("Extensions", params.Get("extensions"))
	if err != nil {
		return nil, err
	}
	req.Extensions = extensions

	return req, nil
}

// jsonObjectParam parses a JSON-encoded object passed as a query-string
// parameter.  Empty means absent.  Bad JSON and JSON that isn't a plain
// object are distinct, deliberate failures.
func jsonObjectParam(name, raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}

	d := json.NewDecoder(strings.NewReader(raw))
	d.UseNumber()

	var value interface{}
	if err := d.Decode(&value); err != nil {
		return nil, x.ValidationErrorf("%s are invalid JSON.", name)
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, x.ValidationErrorf("%s should contain a JSON-encoded object.", name)
	}
	return obj, nil
}

func translatePost(r *http.Request) ([]*schema.Request, bool, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		// https://graphql.org/learn/serving-over-http/#post-request says:
		// "A standard GraphQL POST request should use the application/json
		// content type ..."
		return nil, false, x.ValidationErrorf(postBodyMsg)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false, x.ValidationErrorf(postBodyMsg)
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false, x.ValidationErrorf(postBodyMsg)
	}

	if trimmed[0] == '[' {
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, false, x.ValidationErrorf(postBodyMsg)
		}
		reqs := make([]*schema.Request, 0, len(elements))
		for _, element := range elements {
			req, err := translatePostBody(element, r.Header)
			if err != nil {
				return nil, false, err
			}
			reqs = append(reqs, req)
		}
		return reqs, true, nil
	}

	req, terr := translatePostBody(trimmed, r.Header)
	if terr != nil {
		return nil, false, terr
	}
	return []*schema.Request{req}, false, nil
}

// translatePostBody turns one JSON body into an operation request.  The body
// must be a non-empty JSON object; each known field is extracted with an
// explicit type check, never duck-typed.
func translatePostBody(body json.RawMessage, header http.Header) (*schema.Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return nil, x.ValidationErrorf(postBodyMsg)
	}

	req := &schema.Request{Header: header}

	query, state := stringField(fields, "query")
	switch state {
	case fieldValid:
		req.Query = query
	case fieldInvalid:
		if looksLikeAST(fields["query"]) {
			return nil, x.ValidationErrorf(
				"GraphQL queries must be strings. It looks like the request contains the " +
					"parsed AST representation of a query instead of the query text itself. " +
					"Send the query as a string.")
		}
		return nil, x.ValidationErrorf("GraphQL queries must be strings.")
	}

	// operationName shares the strings-if-present rule; a wrong type is
	// dropped, not an error.
	if name, state := stringField(fields, "operationName"); state == fieldValid {
		req.OperationName = name
	}

	// Non-object variables and extensions are silently dropped.
	if variables, state := objectField(fields, "variables"); state == fieldValid {
		req.Variables = variables
	}
	if extensions, state := objectField(fields, "extensions"); state == fieldValid {
		req.Extensions = extensions
	}

	return req, nil
}

// looksLikeAST reports whether raw is a JSON object shaped like a parsed
// GraphQL document, i.e. with "kind": "Document".
func looksLikeAST(raw json.RawMessage) bool {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Kind == "Document"
}

func stringField(fields map[string]json.RawMessage, name string) (string, fieldState) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return "", fieldAbsent
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fieldInvalid
	}
	return s, fieldValid
}

func objectField(fields map[string]json.RawMessage, name string) (map[string]interface{}, fieldState) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return nil, fieldAbsent
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()

	var obj map[string]interface{}
	if err := d.Decode(&obj); err != nil {
		return nil, fieldInvalid
	}
	return obj, fieldValid
}
