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
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/confexport/cmd/confexport/commands"
	"github.com/walteh/confexport/cmd/confexport/opts"
	"github.com/walteh/confexport/pkg/log"

	_ "github.com/walteh/confexport/pkg/remote/confluence"
	_ "github.com/walteh/confexport/pkg/remote/jira"
)

func newRootCmd(o *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "confexport",
		Short: "Export Confluence pages to Markdown",
		Long: `confexport converts Confluence pages, their attachments and embedded
images into Markdown files laid out by configurable path templates.

Exports are resumable: completed pages are recorded under .cache/ in the
output root and skipped on the next run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging()
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return loadRootOpts(cmd.Context(), o)
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewPagesCmd(o),
		commands.NewPagesWithDescendantsCmd(o),
		commands.NewSpacesCmd(o),
		commands.NewAllSpacesCmd(o),
		commands.NewConfigCmd(o),
		newVersionCmd(),
	)

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &opts.RootOpts{}
	if err := newRootCmd(o).ExecuteContext(ctx); err != nil {
		userLogger := o.UserLogger
		if userLogger == nil {
			userLogger = log.New(os.Stderr, zerolog.Disabled)
		}
		userLogger.Errorf("%v", err)
		stop()
		os.Exit(1)
	}
}
