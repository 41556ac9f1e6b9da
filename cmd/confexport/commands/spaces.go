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

package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/confexport/cmd/confexport/opts"
)

// NewSpacesCmd creates the spaces command
func NewSpacesCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spaces KEY...",
		Short: "Export every page of the given spaces",
		Long: `Spaces exports all pages of each space. The page ids of a space are
cached under .cache/<KEY>/pages.txt; delete that file to pick up new pages.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			stack, err := newStack(ctx, o)
			if err != nil {
				return err
			}

			return run(ctx, o, stack, stack.Exporter.SpacesOperation(args))
		},
	}

	return cmd
}

// NewAllSpacesCmd creates the all-spaces command
func NewAllSpacesCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all-spaces",
		Short: "Export every global space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			stack, err := newStack(ctx, o)
			if err != nil {
				return err
			}

			return run(ctx, o, stack, stack.Exporter.AllSpacesOperation())
		},
	}

	return cmd
}
