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

package convert

import (
	"context"
	"html"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/asset"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/reference"
	"gitlab.com/tozd/go/errors"
	xhtml "golang.org/x/net/html"
)

// LinkResolver renders anchors and page links
type LinkResolver interface {
	Resolve(ctx context.Context, pc reference.Context, l reference.Link) string
	PageLink(ctx context.Context, pc reference.Context, id, label string) (string, error)
}

// AssetResolver matches attachments and materializes images
type AssetResolver interface {
	FindAttachment(ctx context.Context, page *model.Page, ref asset.Ref) (*model.Attachment, error)
	Link(ctx context.Context, pagePath string, a *model.Attachment) (string, error)
	Image(ctx context.Context, pagePath, src string) string
}

// IssueSource loads tracker issues by key
type IssueSource interface {
	Issue(ctx context.Context, key string) (*model.Issue, error)
}

// Options controls document composition
type Options struct {
	Style             config.MarkdownStyle
	FrontMatterIndent int
	MacrosToIgnore    []string
}

// OptionsFromConfig picks the conversion settings out of an export config
func OptionsFromConfig(cfg config.ExportConfig) Options {
	return Options{
		Style:             cfg.MarkdownStyle,
		FrontMatterIndent: cfg.FrontMatterIndent,
		MacrosToIgnore:    cfg.MacrosToIgnore,
	}
}

// 🔄 Converter turns page markup into Markdown documents
type Converter struct {
	opts   Options
	ignore map[string]bool
	links  LinkResolver
	assets AssetResolver
	issues IssueSource
}

// New creates a Converter
func New(opts Options, links LinkResolver, assets AssetResolver, issues IssueSource) *Converter {
	ignore := make(map[string]bool, len(opts.MacrosToIgnore))
	for _, m := range opts.MacrosToIgnore {
		ignore[m] = true
	}
	if opts.FrontMatterIndent <= 0 {
		opts.FrontMatterIndent = 2
	}
	return &Converter{opts: opts, ignore: ignore, links: links, assets: assets, issues: issues}
}

// Result is a converted page
type Result struct {
	// Body is the converted page markup
	Body string
	// Properties holds tags and property-panel values
	Properties Properties
	// Markdown is the complete document
	Markdown string
}

// Convert converts page, exported at pagePath, into a complete document.
// Properties are collected while the body converts, so front matter is
// rendered afterwards.
func (c *Converter) Convert(ctx context.Context, page *model.Page, pagePath string) (*Result, error) {
	if err := c.opts.Style.Validate(); err != nil {
		return nil, err
	}

	pc := c.newPageConverter(ctx, page, pagePath)

	body, err := pc.convertHTML(c.pageHTML(page))
	if err != nil {
		return nil, errors.Errorf("converting page %s: %w", page.ID, err)
	}

	pc.props.Set("tags", Tags(page.Labels))

	frontMatter, err := pc.props.FrontMatter(c.opts.FrontMatterIndent)
	if err != nil {
		return nil, errors.Errorf("rendering front matter of page %s: %w", page.ID, err)
	}

	var doc string
	switch c.opts.Style {
	case config.StyleGFM:
		doc = frontMatter + "\n" + pc.breadcrumbs() + "\n" + body + "\n"
	case config.StyleObsidian:
		doc = frontMatter + "\n" + body + "\n"
	}

	return &Result{Body: body, Properties: pc.props, Markdown: doc}, nil
}

// pageHTML is the markup converted for a page: GFM documents get the title
// as a top-level heading
func (c *Converter) pageHTML(page *model.Page) string {
	if c.opts.Style == config.StyleGFM {
		return "<h1>" + html.EscapeString(page.Title) + "</h1>" + page.Body
	}
	return page.Body
}

// Tags renders labels as front-matter tags
func Tags(labels []model.Label) []string {
	tags := make([]string, 0, len(labels))
	for _, l := range labels {
		tags = append(tags, "#"+l.Name)
	}
	return tags
}

// pageConverter holds the state of one page conversion
type pageConverter struct {
	*Converter

	ctx    context.Context
	page   *model.Page
	path   string
	ref    reference.Context
	props  Properties
	logger zerolog.Logger
}

func (c *Converter) newPageConverter(ctx context.Context, page *model.Page, pagePath string) *pageConverter {
	return &pageConverter{
		Converter: c,
		ctx:       ctx,
		page:      page,
		path:      pagePath,
		ref:       reference.Context{Page: page, Path: pagePath},
		props:     Properties{},
		logger:    zerolog.Ctx(ctx).With().Str("page_id", page.ID).Logger(),
	}
}

// breadcrumbs links every ancestor, root first
func (pc *pageConverter) breadcrumbs() string {
	crumbs := make([]string, 0, len(pc.page.Ancestors))
	for _, id := range pc.page.Ancestors {
		link, err := pc.links.PageLink(pc.ctx, pc.ref, id, "")
		if err != nil {
			pc.logger.Warn().Err(err).Str("ancestor_id", id).Msg("could not link ancestor in breadcrumbs")
			link = id
		}
		crumbs = append(crumbs, link)
	}
	return strings.Join(crumbs, " > ") + "\n"
}

// convertHTML parses and converts a markup fragment
func (pc *pageConverter) convertHTML(markup string) (string, error) {
	root, err := parseFragment(markup)
	if err != nil {
		return "", err
	}
	return finish(pc.children(root, nil)), nil
}

// convertNode converts a node on its own, as if it were a document
func (pc *pageConverter) convertNode(n *xhtml.Node) string {
	return finish(pc.children(n, nil))
}

func finish(md string) string {
	return strings.Trim(collapseBlankLines(md), "\n")
}

// collapseBlankLines squeezes runs of blank lines down to one, leaving
// fenced code blocks untouched
func collapseBlankLines(md string) string {
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	blank := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			blank = 0
		} else if !inFence && line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// parseFragment parses markup and returns its body element
func parseFragment(markup string) (*xhtml.Node, error) {
	doc, err := xhtml.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.Errorf("parsing markup: %w", err)
	}
	if body := findElement(doc, "body"); body != nil {
		return body, nil
	}
	return doc, nil
}

func findElement(n *xhtml.Node, tag string) *xhtml.Node {
	if n.Type == xhtml.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
