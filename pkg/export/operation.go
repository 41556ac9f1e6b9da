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

package export

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one export command bound to an Exporter
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	// Execute runs the export
	Execute(ctx context.Context) error
	// Summary returns the tally of the last run, or nil
	Summary() *Summary
}

type operation struct {
	name    string
	run     func(ctx context.Context) (*Summary, error)
	summary *Summary
}

func (o *operation) Name() string {
	return o.name
}

func (o *operation) Summary() *Summary {
	return o.summary
}

func (o *operation) Execute(ctx context.Context) error {
	s, err := o.run(ctx)
	if s != nil {
		o.summary = s
	}
	if err != nil {
		return errors.Errorf("%s: %w", o.name, err)
	}
	return nil
}

// 📄 PagesOperation exports the given pages
func (e *Exporter) PagesOperation(ids []string) Operation {
	return &operation{
		name: "pages",
		run: func(ctx context.Context) (*Summary, error) {
			return e.ExportPages(ctx, "pages "+strings.Join(ids, ","), ids)
		},
	}
}

// 🌳 DescendantsOperation exports each page together with its descendants
func (e *Exporter) DescendantsOperation(ids []string) Operation {
	return &operation{
		name: "pages-with-descendants",
		run: func(ctx context.Context) (*Summary, error) {
			total := &Summary{Title: "pages with descendants"}
			for _, id := range ids {
				s, err := e.ExportPageWithDescendants(ctx, id)
				if s != nil {
					total.Add(s)
				}
				if err != nil {
					return total, err
				}
			}
			return total, nil
		},
	}
}

// 🏠 SpacesOperation exports every page of the given spaces
func (e *Exporter) SpacesOperation(keys []string) Operation {
	return &operation{
		name: "spaces",
		run: func(ctx context.Context) (*Summary, error) {
			return e.ExportSpaces(ctx, keys)
		},
	}
}

// 🌐 AllSpacesOperation exports every global space
func (e *Exporter) AllSpacesOperation() Operation {
	return &operation{
		name: "all-spaces",
		run:  e.ExportAllSpaces,
	}
}
