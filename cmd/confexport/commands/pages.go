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
	"context"

	"github.com/spf13/cobra"
	"github.com/walteh/confexport/cmd/confexport/opts"
	"github.com/walteh/confexport/pkg/reference"
	"gitlab.com/tozd/go/errors"
)

// pageIDs resolves page arguments, which may be ids or page URLs
func pageIDs(ctx context.Context, refs *reference.Resolver, args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := refs.PageID(ctx, arg)
		if err != nil {
			return nil, errors.Errorf("resolving page %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NewPagesCmd creates the pages command
func NewPagesCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages PAGE...",
		Short: "Export pages by id or URL",
		Long: `Pages exports each given page as Markdown, together with the attachments
it references. A page may be given as an id or as a page URL.

Completed pages are recorded under .cache/ in the output root, so an
interrupted export picks up where it stopped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			stack, err := newStack(ctx, o)
			if err != nil {
				return err
			}

			ids, err := pageIDs(ctx, stack.References, args)
			if err != nil {
				return err
			}

			return run(ctx, o, stack, stack.Exporter.PagesOperation(ids))
		},
	}

	return cmd
}

// NewPagesWithDescendantsCmd creates the pages-with-descendants command
func NewPagesWithDescendantsCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages-with-descendants PAGE...",
		Short: "Export pages and every page below them",
		Long: `Pages-with-descendants exports each given page and all of its descendants.
Descendants are found with a CQL search, which also works on deployments
where the page hierarchy endpoints are unreliable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			stack, err := newStack(ctx, o)
			if err != nil {
				return err
			}

			ids, err := pageIDs(ctx, stack.References, args)
			if err != nil {
				return err
			}

			return run(ctx, o, stack, stack.Exporter.DescendantsOperation(ids))
		},
	}

	return cmd
}
