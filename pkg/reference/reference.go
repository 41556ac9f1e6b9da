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

package reference

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goliatone/go-slug"
	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/asset"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/pathtmpl"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

var (
	wikiPagePattern     = regexp.MustCompile(`/wiki/.+?/pages/(\d+)`)
	viewPagePattern     = regexp.MustCompile(`/pages/viewpage\.action\?pageId=(\d+)`)
	displayPagePattern  = regexp.MustCompile(`/display/(\w+)/([^/]+)(?:\+|$)`)
	numericIDPattern    = regexp.MustCompile(`^\d+$`)
	mentionSuffixes     = []string{"(Unlicensed)", "(Deactivated)"}
	errNoPageForDisplay = errors.New("no page with that title")
)

// Link is an anchor lifted out of page markup
type Link struct {
	Href  string
	Title string
	// Text is the converted anchor content
	Text string
	// Label is the converted first child of the anchor, used as the text of page links
	Label   string
	Classes []string

	ResourceType string
	ResourceID   string
	ContainerID  string
}

// HasClass reports whether the anchor carries class c
func (l Link) HasClass(c string) bool {
	for _, have := range l.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Context is the page a link appears on and that page's export path
type Context struct {
	Page *model.Page
	Path string
}

// PageSource loads pages and resolves space+title lookups
type PageSource interface {
	Page(ctx context.Context, id string) (*model.Page, error)
	PageIDByTitle(ctx context.Context, spaceKey, title string) (string, bool)
}

// PathSource computes page export paths
type PathSource interface {
	PagePath(ctx context.Context, p *model.Page) (string, error)
}

// AttachmentSource matches and links attachments
type AttachmentSource interface {
	FindAttachment(ctx context.Context, page *model.Page, ref asset.Ref) (*model.Attachment, error)
	Link(ctx context.Context, pagePath string, a *model.Attachment) (string, error)
}

// 🔗 Resolver rewrites anchors into Markdown links between exported files
type Resolver struct {
	pages       PageSource
	paths       PathSource
	attachments AttachmentSource
	matchers    []Matcher
}

// New creates a Resolver with the default matcher order
func New(pages PageSource, paths PathSource, attachments AttachmentSource) *Resolver {
	return &Resolver{
		pages:       pages,
		paths:       paths,
		attachments: attachments,
		matchers:    DefaultMatchers(),
	}
}

// Matchers returns the matchers in evaluation order
func (r *Resolver) Matchers() []Matcher {
	return r.matchers
}

// Resolve renders l as Markdown. The first matching matcher wins; a matcher
// that fails falls back to the plain link so the original target is kept.
func (r *Resolver) Resolve(ctx context.Context, pc Context, l Link) string {
	for _, m := range r.matchers {
		if !m.Match(l) {
			continue
		}
		out, err := m.Render(ctx, r, pc, l)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("matcher", m.Name).
				Str("href", l.Href).
				Str("page_id", pageID(pc)).
				Msg("could not resolve link, keeping original target")
			return Plain(l)
		}
		return out
	}
	return Plain(l)
}

// PageLink renders a link to page id relative to the page in pc. An empty
// label uses the target page title.
func (r *Resolver) PageLink(ctx context.Context, pc Context, id, label string) (string, error) {
	if id == "" || id == "null" {
		return "", errors.New("page link does not have a valid page id")
	}

	target, err := r.pages.Page(ctx, id)
	if err != nil {
		return "", errors.Errorf("loading linked page %s: %w", id, err)
	}

	targetPath, err := r.paths.PagePath(ctx, target)
	if err != nil {
		return "", err
	}

	if label == "" {
		label = target.Title
	}
	return "[" + label + "](" + workspace.Link(pc.Path, targetPath) + ")", nil
}

// AttachmentLink renders a link to the attachment referenced by l
func (r *Resolver) AttachmentLink(ctx context.Context, pc Context, l Link) (string, error) {
	a, err := r.attachments.FindAttachment(ctx, pc.Page, asset.Ref{ID: l.ResourceID, ContainerID: l.ContainerID})
	if err != nil {
		return "", err
	}
	href, err := r.attachments.Link(ctx, pc.Path, a)
	if err != nil {
		return "", err
	}
	return "[" + a.Title + "](" + href + ")", nil
}

// PageID turns a CLI page argument (an id or a page URL) into a page id
func (r *Resolver) PageID(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if numericIDPattern.MatchString(ref) {
		return ref, nil
	}
	if id, ok := PageIDFromURL(ref); ok {
		return id, nil
	}
	if m := displayPagePattern.FindStringSubmatch(ref); m != nil {
		title := DisplayTitle(m[2])
		if id, ok := r.pages.PageIDByTitle(ctx, m[1], title); ok {
			return id, nil
		}
		return "", errors.Errorf("%s/%s: %w", m[1], title, errNoPageForDisplay)
	}
	return "", errors.Errorf("not a page id or page URL: %q", ref)
}

// PageIDFromURL extracts a page id from the URL shapes that embed one
func PageIDFromURL(href string) (string, bool) {
	for _, p := range []*regexp.Regexp{wikiPagePattern, viewPagePattern} {
		if m := p.FindStringSubmatch(href); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DisplayTitle decodes the title segment of a /display/ URL
func DisplayTitle(segment string) string {
	return strings.ReplaceAll(segment, "+", " ")
}

// Anchor returns the in-page anchor key for a heading text
func Anchor(text string) string {
	if s, err := slug.Normalize(text); err == nil && s != "" {
		return s
	}
	return pathtmpl.SanitizeKey(text, "-")
}

// UserName strips licensing suffixes from a user mention
func UserName(text string) string {
	text = strings.TrimSpace(text)
	for _, suffix := range mentionSuffixes {
		text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
	}
	return text
}

// Plain renders an ordinary Markdown link, or the bare text without a target
func Plain(l Link) string {
	prefix, text, suffix := chomp(l.Text)
	if text == "" {
		return ""
	}
	if l.Href == "" {
		return prefix + text + suffix
	}
	if l.Title == "" && strings.ReplaceAll(text, `\_`, "_") == l.Href {
		return prefix + "<" + l.Href + ">" + suffix
	}
	title := ""
	if l.Title != "" {
		title = ` "` + strings.ReplaceAll(l.Title, `"`, `\"`) + `"`
	}
	return prefix + "[" + text + "](" + l.Href + title + ")" + suffix
}

// chomp moves surrounding whitespace out of the link text
func chomp(text string) (string, string, string) {
	prefix, suffix := "", ""
	if strings.HasPrefix(text, " ") || strings.HasPrefix(text, "\n") {
		prefix = " "
	}
	if strings.HasSuffix(text, " ") || strings.HasSuffix(text, "\n") {
		suffix = " "
	}
	return prefix, strings.TrimSpace(text), suffix
}

// editorFallback finds the anchor with the same text in the legacy editor markup
func editorFallback(page *model.Page, text string) (Link, bool) {
	if page == nil || page.Editor2 == "" {
		return Link{}, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Editor2))
	if err != nil {
		return Link{}, false
	}

	var found *goquery.Selection
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Text() == text {
			found = s
			return false
		}
		return true
	})
	if found == nil {
		return Link{}, false
	}

	return Link{
		Href:         found.AttrOr("href", ""),
		Title:        found.AttrOr("title", ""),
		Text:         text,
		Label:        text,
		Classes:      strings.Fields(found.AttrOr("class", "")),
		ResourceType: found.AttrOr("data-linked-resource-type", ""),
		ResourceID:   found.AttrOr("data-linked-resource-id", ""),
		ContainerID:  found.AttrOr("data-linked-resource-container-id", ""),
	}, true
}

func pageID(pc Context) string {
	if pc.Page == nil {
		return ""
	}
	return pc.Page.ID
}
