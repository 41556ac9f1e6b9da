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
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/convert"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/status"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

// 📚 Repository is the page and space lookup the exporter reads from
type Repository interface {
	Page(ctx context.Context, id string) (*model.Page, error)
	Space(ctx context.Context, key string) (model.Space, error)
	Descendants(ctx context.Context, id string) ([]string, error)
	SpacePageIDs(ctx context.Context, key string) ([]string, error)
	GlobalSpaces(ctx context.Context) ([]model.Space, error)
}

// PathResolver computes page export paths
type PathResolver interface {
	PagePath(ctx context.Context, p *model.Page) (string, error)
}

// Converter turns a page into a Markdown document
type Converter interface {
	Convert(ctx context.Context, page *model.Page, pagePath string) (*convert.Result, error)
}

// AttachmentExporter downloads the attachments a page references
type AttachmentExporter interface {
	ExportAttachments(ctx context.Context, page *model.Page) int
}

// 🔧 Options contains the collaborators of an Exporter
type Options struct {
	Workspace   *workspace.Workspace
	Repository  Repository
	Paths       PathResolver
	Converter   Converter
	Attachments AttachmentExporter
	// Reporter receives per-page progress; nil reports nothing
	Reporter Reporter
	// SkipPaths are doublestar patterns matched against page export paths
	SkipPaths []string
	// DebugBodies also writes the raw page bodies beside each document
	DebugBodies bool
}

// 🚚 Exporter writes pages, their attachments and the resume state
type Exporter struct {
	ws          *workspace.Workspace
	repo        Repository
	paths       PathResolver
	converter   Converter
	attachments AttachmentExporter
	reporter    Reporter
	skipPaths   []string
	debugBodies bool
}

// 🏭 New creates an exporter with the given options
func New(opts Options) (*Exporter, error) {
	if opts.Workspace == nil {
		return nil, errors.Errorf("workspace is required")
	}
	if opts.Repository == nil {
		return nil, errors.Errorf("repository is required")
	}
	if opts.Paths == nil {
		return nil, errors.Errorf("path resolver is required")
	}
	if opts.Converter == nil {
		return nil, errors.Errorf("converter is required")
	}
	if opts.Attachments == nil {
		return nil, errors.Errorf("attachment exporter is required")
	}
	for _, p := range opts.SkipPaths {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid skip path pattern: %q", p)
		}
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	return &Exporter{
		ws:          opts.Workspace,
		repo:        opts.Repository,
		paths:       opts.Paths,
		converter:   opts.Converter,
		attachments: opts.Attachments,
		reporter:    reporter,
		skipPaths:   opts.SkipPaths,
		debugBodies: opts.DebugBodies,
	}, nil
}

// Workspace returns the export root
func (e *Exporter) Workspace() *workspace.Workspace {
	return e.ws
}

// PageResult describes one exported page
type PageResult struct {
	ID          string
	Title       string
	Path        string
	Status      status.FileStatus
	Ignored     bool
	Attachments int
}

// skipped reports whether path matches a skip pattern
func (e *Exporter) skipped(p string) bool {
	for _, pattern := range e.skipPaths {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// ExportPage converts one page, writes it under the workspace and downloads
// its referenced attachments
func (e *Exporter) ExportPage(ctx context.Context, id string) (*PageResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("page_id", id).Logger()

	page, err := e.repo.Page(ctx, id)
	if err != nil {
		return nil, errors.Errorf("loading page %s: %w", id, err)
	}

	pagePath, err := e.paths.PagePath(ctx, page)
	if err != nil {
		return nil, err
	}

	result := &PageResult{ID: page.ID, Title: page.Title, Path: pagePath}

	if e.skipped(pagePath) {
		logger.Debug().Str("path", pagePath).Msg("page matches a skip pattern")
		result.Ignored = true
		return result, nil
	}

	if e.debugBodies {
		if err := e.writeBodies(ctx, page, pagePath); err != nil {
			logger.Warn().Err(err).Msg("could not write debug bodies")
		}
	}

	doc, err := e.converter.Convert(ctx, page, pagePath)
	if err != nil {
		return nil, err
	}

	st, err := e.ws.Files().WriteFile(ctx, pagePath, []byte(doc.Markdown))
	if err != nil {
		return nil, errors.Errorf("writing page %s: %w", id, err)
	}
	result.Status = st

	result.Attachments = e.attachments.ExportAttachments(ctx, page)

	logger.Debug().Str("path", pagePath).Str("status", st.String()).Int("attachments", result.Attachments).Msg("exported page")

	return result, nil
}

// writeBodies dumps the raw page bodies beside the page document
func (e *Exporter) writeBodies(ctx context.Context, page *model.Page, pagePath string) error {
	dir := path.Dir(pagePath)
	stem := strings.TrimSuffix(path.Base(pagePath), path.Ext(pagePath))

	view, err := normalizeHTML(page.Body)
	if err != nil {
		return err
	}
	exportView, err := normalizeHTML(page.BodyExport)
	if err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{stem + "_body_view.html", view},
		{stem + "_body_export_view.html", exportView},
		{stem + "_body_editor2.xml", page.Editor2},
	}
	for _, f := range files {
		if _, err := e.ws.Files().WriteFile(ctx, path.Join(dir, f.name), []byte(f.content)); err != nil {
			return err
		}
	}
	return nil
}

// normalizeHTML reparses markup so the dump is well formed
func normalizeHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", errors.Errorf("parsing body: %w", err)
	}
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", errors.Errorf("rendering body: %w", err)
	}
	return out, nil
}
