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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/convert"
	"github.com/walteh/confexport/pkg/lookup"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/remote"
	"github.com/walteh/confexport/pkg/remote/remotetest"
	"github.com/walteh/confexport/pkg/state"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// fixture serves Home(1) > Child(2) > Deep(3) in space ENG
type fixture struct {
	t       *testing.T
	ctx     context.Context
	source  *remotetest.Source
	tracker *remotetest.Tracker
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	source := remotetest.NewSource()
	source.Spaces["ENG"] = remotetest.Space("ENG", "Engineering", "1")
	source.Pages["1"] = remotetest.Page("1", "Home", "ENG", "<p>home</p>")
	source.Pages["2"] = remotetest.Page("2", "Child", "ENG", "<p>child</p>", "1")
	source.Pages["3"] = remotetest.Page("3", "Deep", "ENG", "<p>deep</p>", "1", "2")
	source.SpacePages["ENG"] = []string{"1", "2", "3"}

	cfg := config.Default()
	cfg.Export.MarkdownStyle = config.StyleObsidian
	cfg.Export.PagePath = "{space_name}/{ancestor_titles}/{page_title}.md"
	cfg.Export.OutputRoot = t.TempDir()

	return &fixture{
		t:       t,
		ctx:     setupTestLogger(t),
		source:  source,
		tracker: remotetest.NewTracker(),
		cfg:     cfg,
	}
}

// stack builds a fresh pipeline, as a new process would
func (f *fixture) stack(reporter Reporter) *Stack {
	f.t.Helper()
	s, err := Build(f.ctx, f.cfg, Backends{Source: f.source, Tracker: f.tracker}, reporter)
	require.NoError(f.t, err, "building export stack")
	return s
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.cfg.Export.OutputRoot, filepath.FromSlash(rel)))
	return err == nil
}

func (f *fixture) read(rel string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.cfg.Export.OutputRoot, filepath.FromSlash(rel)))
	require.NoError(f.t, err, "reading %s", rel)
	return string(data)
}

func (f *fixture) progress() []string {
	f.t.Helper()
	log, err := state.OpenProgressLog(f.ctx, workspace.New(f.cfg.Export.OutputRoot, ""))
	require.NoError(f.t, err, "opening progress log")
	return log.Pending([]string{"1", "2", "3"})
}

// recordingReporter keeps every callback
type recordingReporter struct {
	started int
	done    []string
	failed  []string
	stopped *Summary
}

func (r *recordingReporter) Start(title string, total int) {
	r.started = total
}

func (r *recordingReporter) PageDone(res *PageResult) {
	r.done = append(r.done, res.ID)
}

func (r *recordingReporter) PageFailed(id string, err error) {
	r.failed = append(r.failed, id)
}

func (r *recordingReporter) Stop(s *Summary) {
	r.stopped = s
}

func TestExportPage(t *testing.T) {
	f := newFixture(t)
	exp := f.stack(nil).Exporter

	res, err := exp.ExportPage(f.ctx, "3")
	require.NoError(t, err, "exporting page")

	assert.Equal(t, "Engineering/Child/Deep.md", res.Path, "page path")
	assert.Equal(t, "Deep", res.Title, "page title")
	assert.False(t, res.Ignored, "page is not ignored")
	assert.Equal(t, "\ndeep\n", f.read(res.Path), "obsidian document")

	again, err := exp.ExportPage(f.ctx, "3")
	require.NoError(t, err, "re-exporting page")
	assert.Equal(t, "unchanged", again.Status.String(), "identical output is unchanged")
}

func TestExportPagesResumesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.source.Errors["page:3"] = remotetest.Status(500, "/rest/api/content/3")

	reporter := &recordingReporter{}
	first, err := f.stack(reporter).Exporter.ExportPages(f.ctx, "first", []string{"1", "2", "3"})
	require.NoError(t, err, "a failing page does not fail the batch")

	assert.Equal(t, 2, first.Exported, "pages 1 and 2 exported")
	assert.Equal(t, 1, first.Failed, "page 3 failed")
	assert.Equal(t, []string{"3"}, first.FailedIDs, "failed ids")
	assert.Equal(t, []string{"1", "2"}, reporter.done, "reported pages")
	assert.Equal(t, []string{"3"}, reporter.failed, "reported failures")
	assert.Same(t, first, reporter.stopped, "summary is reported on stop")
	assert.Equal(t, []string{"3"}, f.progress(), "failed page is not logged")

	delete(f.source.Errors, "page:3")
	require.NoError(t, os.Remove(filepath.Join(f.cfg.Export.OutputRoot, "Engineering", "Home.md")), "removing page 1 output")

	second, err := f.stack(nil).Exporter.ExportPages(f.ctx, "second", []string{"1", "2", "3"})
	require.NoError(t, err, "re-running batch")

	assert.Equal(t, 2, second.Resumed, "pages 1 and 2 are skipped")
	assert.Equal(t, 1, second.Exported, "only page 3 is processed")
	assert.Equal(t, 0, second.Failed, "no failures")
	assert.False(t, f.exists("Engineering/Home.md"), "page 1 is not written again")
	assert.True(t, f.exists("Engineering/Child/Deep.md"), "page 3 is written")
	assert.Empty(t, f.progress(), "every page is logged")
}

// failingConverter fails every conversion with err
type failingConverter struct {
	err   error
	calls int
}

func (c *failingConverter) Convert(ctx context.Context, page *model.Page, pagePath string) (*convert.Result, error) {
	c.calls++
	return nil, c.err
}

func TestExportPagesInvalidStyleAborts(t *testing.T) {
	f := newFixture(t)
	s := f.stack(nil)

	conv := &failingConverter{err: errors.Errorf("%w: %q", config.ErrInvalidMarkdownStyle, "Wiki")}
	exp, err := New(Options{
		Workspace:   s.Exporter.Workspace(),
		Repository:  s.Repository,
		Paths:       s.Paths,
		Converter:   conv,
		Attachments: s.Assets,
	})
	require.NoError(t, err, "creating exporter")

	summary, err := exp.ExportPages(f.ctx, "batch", []string{"1", "2", "3"})
	require.Error(t, err, "invalid style is fatal")
	assert.ErrorIs(t, err, config.ErrInvalidMarkdownStyle, "style error is returned")
	assert.Equal(t, 1, conv.calls, "batch stops at the first page")
	assert.Equal(t, 0, summary.Failed, "fatal error is not counted as a page failure")
	assert.Equal(t, []string{"1", "2", "3"}, f.progress(), "nothing is logged")
}

func TestExportPagesSkipPaths(t *testing.T) {
	f := newFixture(t)
	f.cfg.Export.SkipPaths = []string{"Engineering/Child/**"}

	summary, err := f.stack(nil).Exporter.ExportPages(f.ctx, "batch", []string{"2", "3"})
	require.NoError(t, err, "exporting pages")

	assert.Equal(t, 1, summary.Exported, "child exported")
	assert.Equal(t, 1, summary.Ignored, "deep ignored")
	assert.True(t, f.exists("Engineering/Child.md"), "child written")
	assert.False(t, f.exists("Engineering/Child/Deep.md"), "deep not written")
	assert.Equal(t, []string{"1"}, f.progress(), "ignored pages are logged")
}

func TestExportPageDebugBodies(t *testing.T) {
	f := newFixture(t)
	f.cfg.Export.DebugBodies = true
	f.source.Pages["3"].Body.ExportView.Value = "<p>export"
	f.source.Pages["3"].Body.Editor2.Value = "<p>editor</p>"

	_, err := f.stack(nil).Exporter.ExportPage(f.ctx, "3")
	require.NoError(t, err, "exporting page")

	assert.Equal(t, "<p>deep</p>", f.read("Engineering/Child/Deep_body_view.html"), "view body")
	assert.Equal(t, "<p>export</p>", f.read("Engineering/Child/Deep_body_export_view.html"), "export view is normalized")
	assert.Equal(t, "<p>editor</p>", f.read("Engineering/Child/Deep_body_editor2.xml"), "editor body")
}

func TestExportPageWithDescendants(t *testing.T) {
	t.Run("exports_page_and_descendants", func(t *testing.T) {
		f := newFixture(t)
		f.source.Search[lookup.DescendantsCQL("1")] = []remote.SearchResultJSON{remotetest.Hit("2"), remotetest.Hit("3")}

		summary, err := f.stack(nil).Exporter.ExportPageWithDescendants(f.ctx, "1")
		require.NoError(t, err, "exporting descendants")

		assert.Equal(t, 3, summary.Exported, "all pages exported")
		for _, p := range []string{"Engineering/Home.md", "Engineering/Child.md", "Engineering/Child/Deep.md"} {
			assert.True(t, f.exists(p), "%s written", p)
		}
	})

	t.Run("missing_descendants_are_no_content", func(t *testing.T) {
		f := newFixture(t)
		f.source.Errors["search:"+lookup.DescendantsCQL("9")] = remotetest.Status(404, "/rest/api/content/search")

		_, err := f.stack(nil).Exporter.ExportPageWithDescendants(f.ctx, "9")
		require.Error(t, err, "search failure surfaces")
		assert.ErrorIs(t, err, lookup.ErrNoContent, "not found is distinguishable")
	})
}

func TestExportSpace(t *testing.T) {
	f := newFixture(t)

	first, err := f.stack(nil).Exporter.ExportSpace(f.ctx, "ENG")
	require.NoError(t, err, "exporting space")
	assert.Equal(t, 3, first.Exported, "all pages exported")

	ws := workspace.New(f.cfg.Export.OutputRoot, "")
	assert.Equal(t, "1\n2\n3\n", f.read(state.NewPageIDCache(ws, "ENG").Path()), "page ids cached")

	second, err := f.stack(nil).Exporter.ExportSpace(f.ctx, "ENG")
	require.NoError(t, err, "re-exporting space")
	assert.Equal(t, 3, second.Resumed, "everything resumed")
	assert.Equal(t, 0, second.Exported, "nothing exported again")
	assert.Equal(t, 1, f.source.Calls("space-pages:ENG"), "page ids enumerated once")
}

func TestExportSpaceWithoutHomepage(t *testing.T) {
	f := newFixture(t)
	f.source.Spaces["ARC"] = remotetest.Space("ARC", "Archive", "")
	f.source.SpacePages["ARC"] = []string{"1", "2", "3"}

	summary, err := f.stack(nil).Exporter.ExportSpace(f.ctx, "ARC")
	require.NoError(t, err, "exporting space")
	assert.Equal(t, 0, summary.Exported, "nothing exported")
	assert.Equal(t, 0, f.source.Calls("space-pages:ARC"), "pages never enumerated")
	assert.False(t, f.exists("Engineering/Home.md"), "no page written")
}

func TestExportAllSpaces(t *testing.T) {
	f := newFixture(t)
	f.source.Spaces["OPS"] = remotetest.Space("OPS", "Operations", "9")
	f.source.Errors["space-pages:OPS"] = remotetest.Status(403, "/rest/api/space/OPS/content")

	summary, err := f.stack(nil).Exporter.ExportAllSpaces(f.ctx)
	require.NoError(t, err, "a failing space does not fail the run")

	assert.Equal(t, 3, summary.Exported, "ENG exported")
	assert.True(t, f.exists("Engineering/Child/Deep.md"), "ENG pages written")
}

func TestNewValidation(t *testing.T) {
	f := newFixture(t)
	s := f.stack(nil)

	valid := func() Options {
		return Options{
			Workspace:   s.Exporter.Workspace(),
			Repository:  s.Repository,
			Paths:       s.Paths,
			Converter:   s.Converter,
			Attachments: s.Assets,
		}
	}

	tests := []struct {
		name   string
		modify func(o *Options)
		want   string
	}{
		{name: "missing_workspace", modify: func(o *Options) { o.Workspace = nil }, want: "workspace is required"},
		{name: "missing_repository", modify: func(o *Options) { o.Repository = nil }, want: "repository is required"},
		{name: "missing_paths", modify: func(o *Options) { o.Paths = nil }, want: "path resolver is required"},
		{name: "missing_converter", modify: func(o *Options) { o.Converter = nil }, want: "converter is required"},
		{name: "missing_attachments", modify: func(o *Options) { o.Attachments = nil }, want: "attachment exporter is required"},
		{name: "bad_skip_pattern", modify: func(o *Options) { o.SkipPaths = []string{"a/[b"} }, want: "invalid skip path pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.modify(&opts)
			_, err := New(opts)
			require.Error(t, err, "options are rejected")
			assert.Contains(t, err.Error(), tt.want, "error message")
		})
	}

	t.Run("build_rejects_invalid_style", func(t *testing.T) {
		f.cfg.Export.MarkdownStyle = "Wiki"
		_, err := Build(f.ctx, f.cfg, Backends{Source: f.source, Tracker: f.tracker}, nil)
		assert.ErrorIs(t, err, config.ErrInvalidMarkdownStyle, "style is validated up front")
	})
}

// blockingOperation waits for release
type blockingOperation struct {
	release chan struct{}
}

func (o *blockingOperation) Name() string {
	return "blocking"
}

func (o *blockingOperation) Summary() *Summary {
	return nil
}

func (o *blockingOperation) Execute(ctx context.Context) error {
	select {
	case <-o.release:
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("not released")
	}
}

func TestRunner(t *testing.T) {
	t.Run("sync_runs_operation", func(t *testing.T) {
		f := newFixture(t)
		op := f.stack(nil).Exporter.PagesOperation([]string{"1"})

		require.NoError(t, NewRunner(false).Run(f.ctx, op), "running operation")
		require.NotNil(t, op.Summary(), "summary recorded")
		assert.Equal(t, 1, op.Summary().Exported, "page exported")
		assert.Equal(t, "pages", op.Name(), "operation name")
	})

	t.Run("async_returns_on_cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(setupTestLogger(t))
		op := &blockingOperation{release: make(chan struct{})}
		defer close(op.release)

		cancel()
		err := NewRunner(true).Run(ctx, op)
		require.Error(t, err, "cancelled run fails")
		assert.ErrorIs(t, err, context.Canceled, "cancellation is reported")
	})

	t.Run("operation_errors_are_named", func(t *testing.T) {
		f := newFixture(t)
		f.source.Errors["search:"+lookup.DescendantsCQL("1")] = remotetest.Status(404, "/rest/api/content/search")
		op := f.stack(nil).Exporter.DescendantsOperation([]string{"1"})

		err := NewRunner(true).Run(f.ctx, op)
		require.Error(t, err, "operation fails")
		assert.Contains(t, err.Error(), "pages-with-descendants", "operation name in error")
		assert.ErrorIs(t, err, lookup.ErrNoContent, "cause is kept")
	})
}
