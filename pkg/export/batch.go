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
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// 📊 Summary tallies one batch
type Summary struct {
	Title string
	// Requested is the number of ids passed in
	Requested int
	// Resumed is the number of ids already in the progress log
	Resumed  int
	Exported int
	Ignored  int
	Failed   int
	// FailedIDs lists failed pages in processing order
	FailedIDs []string
	Duration  time.Duration
}

// Add merges another batch into s
func (s *Summary) Add(o *Summary) {
	s.Requested += o.Requested
	s.Resumed += o.Resumed
	s.Exported += o.Exported
	s.Ignored += o.Ignored
	s.Failed += o.Failed
	s.FailedIDs = append(s.FailedIDs, o.FailedIDs...)
	s.Duration += o.Duration
}

// ExportPages exports ids in order, skipping those already in the progress
// log and appending each page that completes. A failing page is logged and
// left out of the log; only an invalid markdown style stops the batch.
func (e *Exporter) ExportPages(ctx context.Context, title string, ids []string) (*Summary, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	progress, err := state.OpenProgressLog(ctx, e.ws)
	if err != nil {
		return nil, err
	}

	pending := progress.Pending(ids)
	summary := &Summary{
		Title:     title,
		Requested: len(ids),
		Resumed:   len(ids) - len(pending),
	}

	if summary.Resumed > 0 {
		logger.Info().Int("resumed", summary.Resumed).Int("pending", len(pending)).Msg("resuming export")
	}

	e.reporter.Start(title, len(pending))
	defer func() {
		summary.Duration = time.Since(start)
		e.reporter.Stop(summary)
	}()

	for _, id := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := e.ExportPage(ctx, id)
		if err != nil {
			if errors.Is(err, config.ErrInvalidMarkdownStyle) {
				return summary, err
			}
			logger.Error().Err(err).Str("page_id", id).Msg("failed to export page")
			summary.Failed++
			summary.FailedIDs = append(summary.FailedIDs, id)
			e.reporter.PageFailed(id, err)
			continue
		}

		if result.Ignored {
			summary.Ignored++
		} else {
			summary.Exported++
		}

		if err := progress.Append(ctx, id); err != nil {
			return summary, err
		}
		e.reporter.PageDone(result)
	}

	return summary, nil
}

// ExportPageWithDescendants exports a page and every page below it.
// A descendant search that finds nothing surfaces lookup.ErrNoContent.
func (e *Exporter) ExportPageWithDescendants(ctx context.Context, id string) (*Summary, error) {
	descendants, err := e.repo.Descendants(ctx, id)
	if err != nil {
		return nil, err
	}

	ids := append([]string{id}, descendants...)
	return e.ExportPages(ctx, "page "+id+" and descendants", ids)
}

// ExportSpace exports every page of a space. The page ids are cached per
// space so later runs skip enumerating them again. A space without a
// homepage has no pages.
func (e *Exporter) ExportSpace(ctx context.Context, key string) (*Summary, error) {
	space, err := e.repo.Space(ctx, key)
	if err != nil {
		return nil, errors.Errorf("loading space %s: %w", key, err)
	}

	if space.HomepageID == "" {
		zerolog.Ctx(ctx).Info().Str("space", space.Key).Msg("space has no homepage, nothing to export")
		return &Summary{Title: "space " + space.Key}, nil
	}

	ids, err := state.NewPageIDCache(e.ws, space.Key).Resolve(ctx, func(ctx context.Context) ([]string, error) {
		return e.repo.SpacePageIDs(ctx, space.Key)
	})
	if err != nil {
		return nil, errors.Errorf("listing pages of space %s: %w", key, err)
	}

	return e.ExportPages(ctx, "space "+space.Key, ids)
}

// ExportSpaces exports several spaces one after the other
func (e *Exporter) ExportSpaces(ctx context.Context, keys []string) (*Summary, error) {
	total := &Summary{Title: "spaces"}
	for _, key := range keys {
		s, err := e.ExportSpace(ctx, key)
		if s != nil {
			total.Add(s)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ExportAllSpaces exports every global space. A space that cannot be
// enumerated is logged and skipped.
func (e *Exporter) ExportAllSpaces(ctx context.Context) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	spaces, err := e.repo.GlobalSpaces(ctx)
	if err != nil {
		return nil, errors.Errorf("listing spaces: %w", err)
	}

	total := &Summary{Title: "all spaces"}
	for _, sp := range spaces {
		s, err := e.ExportSpace(ctx, sp.Key)
		if s != nil {
			total.Add(s)
		}
		if err != nil {
			if errors.Is(err, config.ErrInvalidMarkdownStyle) || ctx.Err() != nil {
				return total, err
			}
			logger.Error().Err(err).Str("space_key", sp.Key).Msg("failed to export space")
			continue
		}
	}
	return total, nil
}
