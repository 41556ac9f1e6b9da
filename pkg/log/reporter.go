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

package log

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/export"
	"github.com/walteh/confexport/pkg/status"
)

// 📣 Reporter prints export progress: one line per page and, optionally,
// a progress bar for the batch
type Reporter struct {
	ctx      context.Context
	logger   *Logger
	root     string
	progress bool
	bar      *pterm.ProgressbarPrinter

	formatter status.FileFormatter
	done      int
	total     int
}

var _ export.Reporter = (*Reporter)(nil)

// NewReporter creates a reporter for exports into root. With progress set a
// progress bar is drawn on the logger's console.
func NewReporter(ctx context.Context, logger *Logger, root string, progress bool) *Reporter {
	return &Reporter{
		ctx:       ctx,
		logger:    logger,
		root:      root,
		progress:  progress,
		formatter: status.NewDefaultFileFormatter(),
	}
}

func (r *Reporter) Start(title string, total int) {
	r.logger.StartBatch(r.ctx, BatchOperation{Title: title, Total: total, Root: r.root})
	r.done, r.total = 0, total

	if !r.progress || total == 0 {
		return
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithWriter(r.logger.Console()).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		zerolog.Ctx(r.ctx).Debug().Err(err).Msg("progress bar unavailable")
		return
	}
	r.bar = bar
}

func (r *Reporter) PageDone(res *export.PageResult) {
	r.logger.LogPageOperation(r.ctx, PageOperation{
		ID:          res.ID,
		Title:       res.Title,
		Path:        res.Path,
		Status:      res.Status.String(),
		Attachments: res.Attachments,
		IsIgnored:   res.Ignored,
	})
	r.increment()
}

func (r *Reporter) PageFailed(id string, err error) {
	r.logger.LogPageOperation(r.ctx, PageOperation{ID: id, Err: err})
	r.increment()
}

func (r *Reporter) Stop(s *export.Summary) {
	if r.bar != nil {
		if _, err := r.bar.Stop(); err != nil {
			zerolog.Ctx(r.ctx).Debug().Err(err).Msg("stopping progress bar")
		}
		r.bar = nil
	}

	r.logger.EndBatch(r.ctx, BatchCounts{
		Exported: s.Exported,
		Ignored:  s.Ignored,
		Failed:   s.Failed,
		Resumed:  s.Resumed,
	})
}

func (r *Reporter) increment() {
	r.done++
	if r.bar != nil {
		r.bar.Increment()
		return
	}
	zerolog.Ctx(r.ctx).Debug().Msg(r.formatter.FormatProgress(r.done, r.total))
}
