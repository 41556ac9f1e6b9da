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

package asset

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/remote"
	"github.com/walteh/confexport/pkg/status"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

// ErrAttachmentNotFound is returned when markup references an attachment
// that is not in the page's attachment list
var ErrAttachmentNotFound = errors.New("attachment not found")

// PageSource loads pages by id
type PageSource interface {
	Page(ctx context.Context, id string) (*model.Page, error)
}

// PathSource computes attachment export paths
type PathSource interface {
	AttachmentPath(ctx context.Context, a *model.Attachment) (string, error)
}

// Ref identifies an attachment from markup attributes: either a file id
// (data-media-id) or a link id plus its container page
type Ref struct {
	FileID      string
	ID          string
	ContainerID string
}

// IsZero reports whether the ref carries no identifier
func (r Ref) IsZero() bool {
	return r.FileID == "" && (r.ID == "" || r.ContainerID == "")
}

// Options wires a Resolver
type Options struct {
	Workspace *workspace.Workspace
	Pages     PageSource
	Paths     PathSource
	// Source fetches wiki-hosted files and attachment downloads
	Source remote.Fetcher
	// BaseURL prefixes site-relative image sources
	BaseURL string
	// Tracker fetches images from hosts starting with TrackerHostPrefix
	Tracker           remote.Fetcher
	TrackerHostPrefix string
}

// 🖼️ Resolver materializes attachments and images as local files
type Resolver struct {
	ws            *workspace.Workspace
	pages         PageSource
	paths         PathSource
	source        remote.Fetcher
	baseURL       string
	tracker       remote.Fetcher
	trackerPrefix string
}

// New creates a Resolver
func New(opts Options) *Resolver {
	return &Resolver{
		ws:            opts.Workspace,
		pages:         opts.Pages,
		paths:         opts.Paths,
		source:        opts.Source,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		tracker:       opts.Tracker,
		trackerPrefix: opts.TrackerHostPrefix,
	}
}

// FindAttachment resolves ref against page, or against the container page
// when ref carries a link id
func (r *Resolver) FindAttachment(ctx context.Context, page *model.Page, ref Ref) (*model.Attachment, error) {
	if ref.FileID != "" {
		if a, ok := page.AttachmentByFileID(ref.FileID); ok {
			return a, nil
		}
		return nil, errors.Errorf("file id %s on page %s: %w", ref.FileID, page.ID, ErrAttachmentNotFound)
	}

	if ref.ID == "" || ref.ContainerID == "" {
		return nil, errors.Errorf("empty reference on page %s: %w", page.ID, ErrAttachmentNotFound)
	}

	container := page
	if ref.ContainerID != page.ID {
		var err error
		container, err = r.pages.Page(ctx, ref.ContainerID)
		if err != nil {
			return nil, errors.Errorf("container page %s: %w", ref.ContainerID, err)
		}
	}

	if a, ok := container.AttachmentByID(ref.ID); ok {
		return a, nil
	}
	return nil, errors.Errorf("attachment %s on page %s: %w", ref.ID, ref.ContainerID, ErrAttachmentNotFound)
}

// Link returns the path of a relative to the page file at pagePath
func (r *Resolver) Link(ctx context.Context, pagePath string, a *model.Attachment) (string, error) {
	target, err := r.paths.AttachmentPath(ctx, a)
	if err != nil {
		return "", err
	}
	return workspace.Link(pagePath, target), nil
}

// ExportAttachment downloads a to its template path unless the file exists
func (r *Resolver) ExportAttachment(ctx context.Context, a *model.Attachment) (status.FileStatus, error) {
	target, err := r.paths.AttachmentPath(ctx, a)
	if err != nil {
		return status.StatusFailed, err
	}

	exists, err := r.ws.Files().FileExists(ctx, target)
	if err != nil {
		return status.StatusFailed, err
	}
	if exists {
		return status.StatusUnchanged, nil
	}

	dl, err := r.source.Fetch(ctx, a.DownloadLink)
	if err != nil {
		return status.StatusFailed, errors.Errorf("downloading attachment %q: %w", a.Title, err)
	}

	return r.ws.Files().WriteFile(ctx, target, dl.Body)
}

// Referenced reports whether page markup uses a, the rule for exporting it:
// draw.io sources by diagram name in the view body, draw.io previews by
// encoded title in the export view, everything else by file id
func Referenced(page *model.Page, a *model.Attachment) bool {
	name := a.Filename()
	switch {
	case strings.HasSuffix(name, ".drawio.png"):
		return strings.Contains(page.BodyExport, strings.ReplaceAll(a.Title, " ", "%20"))
	case strings.HasSuffix(name, ".drawio"):
		return strings.Contains(page.Body, "diagramName="+a.Title)
	default:
		return a.FileID != "" && strings.Contains(page.Body, a.FileID)
	}
}

// ExportAttachments downloads every attachment the page references.
// Failures are logged and skipped.
func (r *Resolver) ExportAttachments(ctx context.Context, page *model.Page) int {
	logger := zerolog.Ctx(ctx)

	exported := 0
	for i := range page.Attachments {
		a := &page.Attachments[i]
		if !Referenced(page, a) {
			continue
		}
		st, err := r.ExportAttachment(ctx, a)
		if err != nil {
			logger.Warn().Err(err).Str("page_id", page.ID).Str("attachment_id", a.ID).Str("title", a.Title).Msg("skipping attachment export")
			continue
		}
		if st != status.StatusUnchanged {
			exported++
		}
	}
	return exported
}
