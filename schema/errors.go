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

import (
	"github.com/dgraph-io/gqlparser/v2/gqlerror"
)

// An ErrorFormatter rewrites a GraphQL error before it is serialized.  It is
// the place for message redaction policies.  Returning nil drops the error.
type ErrorFormatter func(*gqlerror.Error) *gqlerror.Error

// AsGQLErrors formats an error as a list of GraphQL errors.  A gqlerror.List
// gets returned as is, a *gqlerror.Error as a one item list, and any other
// error gets printed into a gqlerror.Error.  A nil input results in nil
// output.
func AsGQLErrors(err error) gqlerror.List {
	switch e := err.(type) {
	case nil:
		return nil
	case *gqlerror.Error:
		return gqlerror.List{e}
	case gqlerror.List:
		return e
	default:
		return gqlerror.List{gqlerror.Errorf("%s", e.Error())}
	}
}

// FormatErrors applies format to every error in errs.  Extensions survive
// formatting: if the formatter strips them, the original extensions are put
// back.  A nil formatter returns errs unchanged.
func FormatErrors(errs gqlerror.List, format ErrorFormatter) gqlerror.List {
	if format == nil || len(errs) == 0 {
		return errs
	}

	out := make(gqlerror.List, 0, len(errs))
	for _, e := range errs {
		ext := e.Extensions
		formatted := format(e)
		if formatted == nil {
			continue
		}
		if formatted.Extensions == nil && ext != nil {
			formatted.Extensions = ext
		}
		out = append(out, formatted)
	}
	return out
}
