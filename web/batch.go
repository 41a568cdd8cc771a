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
	"context"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/graphyte-io/graphyte/api"
	"github.com/graphyte-io/graphyte/resolve"
	"github.com/graphyte-io/graphyte/x"
)

// HTTPResponse is the merged, transport-neutral result of one HTTP request:
// a body, headers and a status code, ready for any adapter to write out.
type HTTPResponse struct {
	Body       []byte
	Headers    *x.Headers
	StatusCode int
}

type opResult struct {
	body []byte
	meta *resolve.ResponseMeta
}

// RunHTTPQuery translates r, runs every operation it carries concurrently
// through rr, and merges the results into one HTTP response.
//
// Ordering is deterministic regardless of completion order: bodies appear
// in input order, and the header/status merge walks results in input order
// too.  On header collisions the later operation overwrites the earlier;
// the same goes for explicitly-set status codes.  This last-write-wins rule
// is a documented quirk of the merge, kept on purpose.
//
// A protocol-level failure from any single operation aborts the whole
// batch: no partial batch results are returned.
func RunHTTPQuery(ctx context.Context, r *http.Request,
	rr *resolve.RequestResolver) (*HTTPResponse, error) {

	reqs, isBatch, err := Translate(r)
	if err != nil {
		return nil, err
	}

	requestID := api.RequestID(ctx)
	results := make([]opResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() (err error) {
			defer api.PanicHandler(requestID, func(perr error) {
				err = x.AsHttpError(perr)
			})

			// Each operation gets its own companion state; the context
			// itself is shared across the batch.
			oc := resolve.NewOperationContext(requestID)
			resp, meta, rerr := rr.Resolve(gctx, req, oc)
			if rerr != nil {
				return rerr
			}
			results[i] = opResult{body: resp.Bytes(), meta: meta}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, x.AsHttpError(err)
	}

	return mergeResults(results, isBatch), nil
}

// mergeResults builds the final response in one deterministic pass over the
// completed results, indexed by original position.
func mergeResults(results []opResult, isBatch bool) *HTTPResponse {
	out := &HTTPResponse{Headers: x.NewHeaders()}
	out.Headers.Set("content-type", "application/json")

	var body bytes.Buffer
	if isBatch {
		body.WriteByte('[')
	}
	for i, res := range results {
		if i > 0 {
			body.WriteByte(',')
		}
		// Already-serialized bodies are concatenated as is, never
		// re-parsed.
		body.Write(res.body)

		out.Headers.Merge(res.meta.Headers)
		if res.meta.StatusCode != 0 {
			out.StatusCode = res.meta.StatusCode
		}
	}
	if isBatch {
		body.WriteByte(']')
	}
	body.WriteByte('\n')

	if out.StatusCode == 0 {
		out.StatusCode = http.StatusOK
	}
	if !isBatch {
		out.Headers.Set("content-length", strconv.Itoa(body.Len()))
	}

	out.Body = body.Bytes()
	return out
}
