// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowd/flowd/confengine"
	"github.com/flowd/flowd/control"
	"github.com/flowd/flowd/graph"
	"github.com/flowd/flowd/internal/sigs"
	"github.com/flowd/flowd/logger"
	"github.com/flowd/flowd/server"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a control surface and wait for its graph to be built and run over HTTP",
	Long: "run starts an empty network behind a control surface. The graph itself " +
		"is built afterwards through the surface's HTTP routes (add_component, " +
		"connect, initialize, run, ...) rather than loaded from a file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(runConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		applyLoggerConfig(cfg)

		surf, err := control.New("flowd", cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build control surface: %v\n", err)
			os.Exit(1)
		}
		defer surf.Close()

		if srv, err := server.New(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to build server: %v\n", err)
			os.Exit(1)
		} else if srv != nil {
			surf.RegisterRoutes(srv)
			graph.RegisterRoutes(srv, surf)
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					logger.Errorf("server stopped: %v", err)
				}
			}()
		}

		var reloadTotal int
		for {
			select {
			case <-sigs.Terminate():
				surf.Terminate()
				return

			case <-sigs.Reload():
				reloadTotal++
				start := time.Now()
				cfg, err := confengine.LoadConfigPath(runConfigPath)
				if err != nil {
					logger.Errorf("reload (count=%d) failed to load config: %v", reloadTotal, err)
					continue
				}
				applyLoggerConfig(cfg)
				logger.Infof("reload (count=%d) applied logger config in %s", reloadTotal, time.Since(start))
			}
		}
	},
	Example: "# flowd run --config flowd.yaml",
}

func applyLoggerConfig(cfg *confengine.Config) {
	if !cfg.Has("logger") {
		return
	}
	var opts logger.Options
	if err := cfg.UnpackChild("logger", &opts); err != nil {
		logger.Errorf("failed to load logger config: %v", err)
		return
	}
	logger.SetOptions(opts)
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "flowd.yaml", "Configuration file path")
	rootCmd.AddCommand(runCmd)
}
