// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/confexport/cmd/confexport/opts"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	outputRoot string
	debug      bool
	noProgress bool
)

// loadRootOpts fills o from the parsed flags
func loadRootOpts(ctx context.Context, o *opts.RootOpts) error {
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	if outputRoot != "" {
		cfg.Export.OutputRoot = outputRoot
	}

	abs, err := filepath.Abs(cfg.Export.OutputRoot)
	if err != nil {
		return errors.Errorf("getting absolute output path: %w", err)
	}
	cfg.Export.OutputRoot = abs

	level := zerolog.Disabled
	if debug {
		level = zerolog.DebugLevel
	}

	o.Config = cfg
	o.UserLogger = log.New(os.Stdout, level)
	o.Progress = !noProgress && !debug
	o.Async = true
	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (.yaml, .json or .hcl)")
	cmd.PersistentFlags().StringVarP(&outputRoot, "output", "o", "", "output root, overrides export.output_root")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
}

// setupLogging configures zerolog based on flags
func setupLogging() zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}
