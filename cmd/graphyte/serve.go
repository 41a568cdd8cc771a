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
	"fmt"
	"net/http"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opencensus.io/trace"
	"go.opencensus.io/zpages"

	"github.com/graphyte-io/graphyte/cache"
	"github.com/graphyte-io/graphyte/schema"
	"github.com/graphyte-io/graphyte/web"
	"github.com/graphyte-io/graphyte/x"
)

var Serve x.SubCommand

func init() {
	Serve.Cmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the Graphyte HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runServe(); err != nil {
				if glog.V(2) {
					fmt.Printf("Error : %+v\n", err)
				} else {
					fmt.Printf("Error : %s\n", err)
				}
				os.Exit(1)
			}
		},
	}
	Serve.EnvPrefix = "GRAPHYTE"

	flags := Serve.Cmd.Flags()
	flags.IntP("port", "p", 8080, "Port on which to run the HTTP service")
	flags.StringP("schema", "s", "schema.graphql",
		"File containing the GraphQL schema to serve")
	flags.StringP("data", "d", "",
		"JSON file answering top-level query fields; empty means every field resolves to null")
	flags.Int("cache_mb", 30,
		"Document cache budget in MB. Zero disables the cache.")

	// OpenCensus flags.
	flags.Float64("trace", 1.0, "The ratio of requests to trace.")
}

func runServe() error {
	port := Serve.Conf.GetInt("port")
	bindall := Serve.Conf.GetBool("bindall")

	sdl, err := os.ReadFile(Serve.Conf.GetString("schema"))
	if err != nil {
		return errors.Wrap(err, "reading schema file")
	}
	gqlSchema, err := schema.FromString(string(sdl))
	if err != nil {
		return err
	}

	exec, err := newStaticExecutor(Serve.Conf.GetString("data"))
	if err != nil {
		return err
	}

	opts := web.ServerOptions{Executor: exec}
	if mb := Serve.Conf.GetInt("cache_mb"); mb <= 0 {
		opts.DisableDocumentCache = true
	} else {
		opts.DocumentCache = cache.NewLRU(int64(mb) << 20)
	}
	server := web.NewServer(gqlSchema, opts)

	trace.ApplyConfig(trace.Config{
		DefaultSampler:             trace.ProbabilitySampler(Serve.Conf.GetFloat64("trace")),
		MaxAnnotationEventsPerSpan: 256,
	})

	mux := http.NewServeMux()
	mux.Handle("/graphql", server.HTTPHandler())
	zpages.Handle(mux, "/z")

	bind := "localhost"
	if bindall {
		bind = "0.0.0.0"
	}
	addr := fmt.Sprintf("%s:%d", bind, port)

	glog.Infof("Bringing up GraphQL HTTP API at %s/graphql", addr)
	return errors.Wrap(http.ListenAndServe(addr, mux), "GraphQL server failed")
}
