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

// Graphyte serves a GraphQL schema over HTTP, answering queries from a
// static JSON data file.  It exists to exercise the request pipeline end
// to end; swap in a real executor for anything beyond demos.
package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/graphyte-io/graphyte/x"
)

var rootCmd = &cobra.Command{
	Use:   "graphyte",
	Short: "Graphyte: GraphQL over HTTP",
	Long: `
Graphyte is an HTTP front end for GraphQL: it translates GET and POST
requests (including array batches) into GraphQL operations, runs them
through a parse/validate/execute pipeline with a shared document cache,
and writes spec-shaped JSON responses.`,
	PersistentPreRunE: cobra.NoArgs,
}

var rootConf = viper.New()

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by values set with environment variables and flags.")
	rootCmd.PersistentFlags().Bool("bindall", true,
		"Use 0.0.0.0 instead of localhost to bind to all addresses on local machine.")
	x.Check(rootConf.BindPFlags(rootCmd.PersistentFlags()))

	// glog gets its flags through the standard flag package.
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	x.Check(flag.Set("stderrthreshold", "0"))

	subcommands := []*x.SubCommand{&Serve}
	for _, sc := range subcommands {
		rootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		x.Check(sc.Conf.BindPFlags(sc.Cmd.Flags()))
		x.Check(sc.Conf.BindPFlags(rootCmd.PersistentFlags()))
		sc.Conf.AutomaticEnv()
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			x.Check(errors.Wrap(sc.Conf.ReadInConfig(), "reading config"))
		}
	})
}

func main() {
	goflag.Parse()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
