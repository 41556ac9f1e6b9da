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

package pathtmpl

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// Forbidden is substituted for an ancestor title the caller may not read
const Forbidden = "N/A"

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Vars maps placeholder names to substituted values
type Vars map[string]string

// Expand substitutes {name} placeholders. Unknown names stay verbatim.
func Expand(template string, vars Vars) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// Clean normalizes an expanded template into a relative slash path
func Clean(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}

// TitleSource resolves page titles by id
type TitleSource interface {
	PageTitle(ctx context.Context, id string) (string, error)
}

// 🗺️ Resolver computes export paths for pages and attachments
type Resolver struct {
	titles     TitleSource
	page       string
	attachment string
}

// New creates a resolver for the given page and attachment templates
func New(titles TitleSource, pageTemplate, attachmentTemplate string) *Resolver {
	return &Resolver{titles: titles, page: pageTemplate, attachment: attachmentTemplate}
}

// DocumentVars returns the variables shared by pages and attachments
func (r *Resolver) DocumentVars(ctx context.Context, doc *model.Document) (Vars, error) {
	vars := Vars{
		"space_key":      SanitizeFilename(doc.Space.Key),
		"space_name":     SanitizeFilename(doc.Space.Name),
		"homepage_id":    doc.Space.HomepageID,
		"homepage_title": "",
		"ancestor_ids":   strings.Join(doc.Ancestors, "/"),
	}

	if doc.Space.HomepageID != "" {
		title, err := r.titles.PageTitle(ctx, doc.Space.HomepageID)
		if err != nil {
			return nil, errors.Errorf("homepage title of space %s: %w", doc.Space.Key, err)
		}
		vars["homepage_title"] = SanitizeFilename(title)
	}

	titles := make([]string, 0, len(doc.Ancestors))
	for _, id := range doc.Ancestors {
		title, err := r.AncestorTitle(ctx, id)
		if err != nil {
			return nil, err
		}
		titles = append(titles, SanitizeFilename(title))
	}
	vars["ancestor_titles"] = strings.Join(titles, "/")

	return vars, nil
}

// AncestorTitle returns the title of an ancestor page, or Forbidden when
// access is denied. Any other failure is returned.
func (r *Resolver) AncestorTitle(ctx context.Context, id string) (string, error) {
	title, err := r.titles.PageTitle(ctx, id)
	if err == nil {
		return title, nil
	}
	if remote.IsForbidden(err) {
		zerolog.Ctx(ctx).Debug().Str("page_id", id).Msg("ancestor is forbidden, using placeholder title")
		return Forbidden, nil
	}
	return "", errors.Errorf("title of ancestor %s: %w", id, err)
}

// PageVars returns the full variable set for a page
func (r *Resolver) PageVars(ctx context.Context, p *model.Page) (Vars, error) {
	vars, err := r.DocumentVars(ctx, &p.Document)
	if err != nil {
		return nil, err
	}
	vars["page_id"] = p.ID
	vars["page_title"] = SanitizeFilename(p.Title)
	return vars, nil
}

// AttachmentVars returns the full variable set for an attachment
func (r *Resolver) AttachmentVars(ctx context.Context, a *model.Attachment) (Vars, error) {
	vars, err := r.DocumentVars(ctx, &a.Document)
	if err != nil {
		return nil, err
	}
	vars["attachment_id"] = a.ID
	vars["attachment_title"] = SanitizeFilename(a.Title)
	vars["attachment_file_id"] = SanitizeFilename(a.FileID)
	vars["attachment_extension"] = a.Extension()
	return vars, nil
}

// PagePath returns the export path of a page relative to the output root
func (r *Resolver) PagePath(ctx context.Context, p *model.Page) (string, error) {
	vars, err := r.PageVars(ctx, p)
	if err != nil {
		return "", errors.Errorf("path of page %s: %w", p.ID, err)
	}
	return Clean(Expand(r.page, vars)), nil
}

// AttachmentPath returns the export path of an attachment relative to the output root
func (r *Resolver) AttachmentPath(ctx context.Context, a *model.Attachment) (string, error) {
	vars, err := r.AttachmentVars(ctx, a)
	if err != nil {
		return "", errors.Errorf("path of attachment %s: %w", a.ID, err)
	}
	return Clean(Expand(r.attachment, vars)), nil
}
