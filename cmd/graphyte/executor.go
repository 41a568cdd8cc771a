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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/dgraph-io/gqlparser/v2/ast"
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
	"github.com/pkg/errors"

	"github.com/graphyte-io/graphyte/resolve"
)

// staticExecutor answers each top-level field of an operation from a JSON
// object loaded at startup.  Fields without an entry resolve to null;
// mutations and subscriptions get an error per field.
type staticExecutor struct {
	data map[string]json.RawMessage
}

func newStaticExecutor(path string) (*staticExecutor, error) {
	e := &staticExecutor{}
	if path == "" {
		return e, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading data file")
	}
	if err := json.Unmarshal(b, &e.data); err != nil {
		return nil, errors.Wrap(err, "data file must hold a JSON object")
	}
	return e, nil
}

func (e *staticExecutor) Execute(ctx context.Context, p resolve.ExecuteParams) *resolve.Result {
	res := &resolve.Result{}

	var buf bytes.Buffer
	buf.WriteRune('{')
	wrote := 0
	for _, sel := range p.Operation.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		if wrote > 0 {
			buf.WriteRune(',')
		}
		wrote++
		name, _ := json.Marshal(field.Alias)
		buf.Write(name)
		buf.WriteRune(':')

		if p.Operation.Operation != ast.Query {
			buf.WriteString("null")
			res.Errors = append(res.Errors, gqlerror.Errorf(
				"Field %s: only queries are supported by the static data set.", field.Name))
			continue
		}
		if v, ok := e.data[field.Name]; ok {
			buf.Write(v)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteRune('}')

	res.Data = buf.Bytes()
	return res
}
