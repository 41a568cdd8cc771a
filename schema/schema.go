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

// Package schema wraps the gqlparser schema, request and response machinery
// behind the small surface the request-processing core needs: parse a query,
// validate it against the schema, pick the requested operation and serialize
// a spec-compliant response.
package schema

import (
	"github.com/pkg/errors"

	"github.com/dgraph-io/gqlparser/v2"
	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/dgraph-io/gqlparser/v2/parser"
	"github.com/dgraph-io/gqlparser/v2/validator"
)

// Schema is a GraphQL schema that requests are validated and executed
// against.  Immutable once built.
type Schema struct {
	schema *ast.Schema
}

// FromString builds a Schema from an SDL string.
func FromString(sdl string) (*Schema, error) {
	s, gqlErr := gqlparser.LoadSchema(&ast.Source{Input: sdl})
	if gqlErr != nil {
		return nil, errors.Wrap(gqlErr, "while loading GraphQL schema")
	}
	return &Schema{schema: s}, nil
}

// AST exposes the underlying gqlparser schema for executors.
func (s *Schema) AST() *ast.Schema {
	return s.schema
}

// Parse parses query into a document.  The document has not been validated
// against any schema - Validate does that.
func Parse(query string) (*ast.QueryDocument, gqlerror.List) {
	doc, gqlErr := parser.ParseQuery(&ast.Source{Input: query})
	if gqlErr != nil {
		return nil, gqlerror.List{gqlErr}
	}
	return doc, nil
}

// Validate runs schema validation on doc.  Failures come back as a list of
// structured GraphQL errors, never as a Go panic or an opaque error.
func (s *Schema) Validate(doc *ast.QueryDocument, variables map[string]interface{}) gqlerror.List {
	return validator.Validate(s.schema, doc, variables)
}

// Operation finds the operation named opName in doc.  If doc has a single
// operation, opName may be empty.  All failure modes are reported as GraphQL
// errors so they land in the response's errors list.
func Operation(doc *ast.QueryDocument, opName string) (*ast.OperationDefinition, gqlerror.List) {
	if len(doc.Operations) > 1 && opName == "" {
		return nil, gqlerror.List{gqlerror.Errorf(
			"Operation name must be supplied when query has more than 1 operation.")}
	}

	op := doc.Operations.ForName(opName)
	if op == nil {
		return nil, gqlerror.List{gqlerror.Errorf(
			"Supplied operation name %s isn't present in the request.", opName)}
	}
	return op, nil
}
