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

// Package web turns HTTP requests into GraphQL operation requests and
// GraphQL responses back into HTTP, batching included.
package web

import (
	"compress/gzip"
	"net/http"
	"strings"
	"sync"

	"github.com/golang/glog"
	otrace "go.opencensus.io/trace"

	"github.com/graphyte-io/graphyte/api"
	"github.com/graphyte-io/graphyte/cache"
	"github.com/graphyte-io/graphyte/resolve"
	"github.com/graphyte-io/graphyte/schema"
	"github.com/graphyte-io/graphyte/x"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	// Executor runs validated operations.  Required.
	Executor resolve.Executor

	// Hooks are invoked at the pipeline checkpoints.  Optional.
	Hooks resolve.Hooks

	// DocumentCache stores parsed documents.  Leaving it nil gets the
	// default 30 MiB LRU.
	DocumentCache cache.Store

	// DisableDocumentCache switches document caching off entirely: the
	// pipeline re-parses every request and never touches any store.
	DisableDocumentCache bool

	// ErrorFormatter, when set, rewrites every GraphQL error before it is
	// serialized.
	ErrorFormatter schema.ErrorFormatter
}

// A Server serves a GraphQL schema over HTTP.
type Server struct {
	schema  *schema.Schema
	opts    ServerOptions
	store   cache.Store
	handler http.Handler

	mu       sync.RWMutex
	resolver *resolve.RequestResolver
}

// NewServer returns a Server for s.  The document cache is created here and
// lives as long as the server; it is shared by every in-flight request.
func NewServer(s *schema.Schema, opts ServerOptions) *Server {
	store := opts.DocumentCache
	if opts.DisableDocumentCache {
		store = nil
	} else if store == nil {
		store = cache.NewLRU(cache.DefaultMaxBytes)
	}

	srv := &Server{
		schema: s,
		opts:   opts,
		store:  store,
		resolver: resolve.New(s, opts.Executor, store, opts.Hooks,
			opts.ErrorFormatter),
	}
	srv.handler = api.WithRequestID(srv.recoveryHandler(commonHeaders(srv)))
	return srv
}

// HTTPHandler returns the http.Handler that serves GraphQL.
func (s *Server) HTTPHandler() http.Handler {
	return s.handler
}

// SetExecutor swaps the executor at runtime.  In-flight requests finish
// against the resolver they started with.
func (s *Server) SetExecutor(e resolve.Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = resolve.New(s.schema, e, s.store, s.opts.Hooks,
		s.opts.ErrorFormatter)
}

func (s *Server) currentResolver() *resolve.RequestResolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// ServeHTTP handles GraphQL queries over HTTP.  GraphQL-level failures are
// written as a normal JSON envelope; protocol-level failures render as the
// error's own status, headers and body with no envelope and no batch
// wrapper.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := otrace.StartSpan(r.Context(), "graphql.Handler")
	defer span.End()

	res, err := RunHTTPQuery(ctx, r, s.currentResolver())
	if err != nil {
		writeProtocolError(w, r, x.AsHttpError(err), s.opts.ErrorFormatter)
		return
	}

	res.Headers.WriteTo(w.Header())
	writeBody(w, r, res.StatusCode, res.Body)
}

// writeBody sends body with the given status, gzipping when the client
// accepts it.
func writeBody(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.WriteHeader(status)

		gzw := gzip.NewWriter(w)
		defer gzw.Close()
		if _, err := gzw.Write(body); err != nil {
			glog.Error(err)
		}
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		glog.Error(err)
	}
}

// writeProtocolError renders a protocol-level failure: raw status and
// headers, and a bare errors body.  The error message runs through the same
// formatting policy as GraphQL errors.
func writeProtocolError(w http.ResponseWriter, r *http.Request, he *x.HttpError,
	format schema.ErrorFormatter) {

	he.Headers.WriteTo(w.Header())

	resp := schema.ErrorResponsef("%s", he.Message)
	resp.Errors = schema.FormatErrors(resp.Errors, format)
	writeBody(w, r, he.StatusCode, append(resp.Bytes(), '\n'))
}

func commonHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer api.PanicHandler(api.RequestID(r.Context()),
			func(err error) {
				writeProtocolError(w, r, x.AsHttpError(err), s.opts.ErrorFormatter)
			})

		next.ServeHTTP(w, r)
	})
}
