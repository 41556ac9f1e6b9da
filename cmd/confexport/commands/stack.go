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
	"time"

	"github.com/walteh/confexport/cmd/confexport/opts"
	"github.com/walteh/confexport/pkg/export"
	"github.com/walteh/confexport/pkg/log"
	"github.com/walteh/confexport/pkg/remote"
	"github.com/walteh/confexport/pkg/status"
	"gitlab.com/tozd/go/errors"
)

const (
	sourceName  = "confluence"
	trackerName = "jira"
)

// newStack connects to the remotes and wires the export pipeline
func newStack(ctx context.Context, o *opts.RootOpts) (*export.Stack, error) {
	if err := o.Config.ValidateAuth(); err != nil {
		return nil, errors.Errorf("validating credentials: %w", err)
	}

	source, err := remote.NewSource(ctx, sourceName, o.Config)
	if err != nil {
		return nil, errors.Errorf("creating content source: %w", err)
	}

	tracker, fetcher, err := remote.NewTracker(ctx, trackerName, o.Config)
	if err != nil {
		return nil, errors.Errorf("creating issue tracker: %w", err)
	}

	reporter := log.NewReporter(ctx, o.UserLogger, o.Config.Export.OutputRoot, o.Progress)

	stack, err := export.Build(ctx, o.Config, export.Backends{
		Source:         source,
		Tracker:        tracker,
		TrackerFetcher: fetcher,
	}, reporter)
	if err != nil {
		return nil, errors.Errorf("creating exporter: %w", err)
	}
	return stack, nil
}

// run executes op and prints its outcome
func run(ctx context.Context, o *opts.RootOpts, stack *export.Stack, op export.Operation) error {
	o.UserLogger.Header("exporting to " + o.Config.Export.OutputRoot)

	err := export.NewRunner(o.Async).Run(ctx, op)

	if s := op.Summary(); s != nil {
		switch {
		case s.Failed > 0:
			o.UserLogger.Warningf("%d pages exported, %d failed (rerun to retry them)", s.Exported, s.Failed)
		default:
			o.UserLogger.Successf("%d pages exported in %s", s.Exported, s.Duration.Round(time.Millisecond))
		}
	}

	counts := stack.Exporter.Workspace().Files().Counts()
	o.UserLogger.Infof("files: %d new, %d modified, %d unchanged",
		counts[status.StatusNew], counts[status.StatusModified], counts[status.StatusUnchanged])

	if err != nil {
		return errors.Errorf("running %s: %w", op.Name(), err)
	}
	return nil
}
