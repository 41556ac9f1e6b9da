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
	"regexp"
	"strconv"
	"strings"

	"github.com/walteh/confexport/pkg/asset"
	"github.com/walteh/confexport/pkg/reference"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// inline marks contexts where block output must stay on one line
	inline = "_inline"
	// noformat marks contexts where text is emitted verbatim
	noformat = "_noformat"
)

// tagFunc converts an element given its already converted children
type tagFunc func(pc *pageConverter, n *xhtml.Node, text string, parents []string) string

var tagFuncs map[atom.Atom]tagFunc

func init() {
	tagFuncs = map[atom.Atom]tagFunc{
		atom.A:          convertAnchor,
		atom.B:          emphasis("**"),
		atom.Strong:     emphasis("**"),
		atom.I:          emphasis("*"),
		atom.Em:         emphasis("*"),
		atom.Del:        emphasis("~~"),
		atom.S:          emphasis("~~"),
		atom.Strike:     emphasis("~~"),
		atom.Code:       convertCode,
		atom.Kbd:        convertCode,
		atom.Samp:       convertCode,
		atom.Br:         convertBreak,
		atom.P:          convertParagraph,
		atom.Div:        convertDiv,
		atom.Span:       convertSpan,
		atom.H1:         convertHeading,
		atom.H2:         convertHeading,
		atom.H3:         convertHeading,
		atom.H4:         convertHeading,
		atom.H5:         convertHeading,
		atom.H6:         convertHeading,
		atom.Hr:         convertRule,
		atom.Blockquote: convertBlockquote,
		atom.Ul:         convertList,
		atom.Ol:         convertList,
		atom.Li:         convertListItem,
		atom.Pre:        convertPre,
		atom.Img:        convertImage,
		atom.Table:      convertTable,
		atom.Sup:        convertSup,
		atom.Sub:        convertSub,
		atom.Time:       convertTime,
		atom.Script:     drop,
		atom.Style:      drop,
		atom.Head:       drop,
		atom.Colgroup:   drop,
	}
}

var blockElements = map[atom.Atom]bool{
	atom.Html: true, atom.Body: true, atom.Div: true, atom.P: true, atom.Section: true,
	atom.Article: true, atom.Header: true, atom.Footer: true, atom.Blockquote: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true, atom.Tr: true,
	atom.Td: true, atom.Th: true, atom.Pre: true, atom.Hr: true, atom.Figure: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// headings and table cells render their content on one line
var inlineContainers = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Td: true, atom.Th: true,
}

// tables walk their own rows
var selfRendering = map[atom.Atom]bool{
	atom.Table: true,
}

func isBlock(n *xhtml.Node) bool {
	return n != nil && n.Type == xhtml.ElementNode && blockElements[n.DataAtom]
}

func has(parents []string, tag string) bool {
	for _, p := range parents {
		if p == tag {
			return true
		}
	}
	return false
}

func without(parents []string, tag string) []string {
	out := make([]string, 0, len(parents))
	for _, p := range parents {
		if p != tag {
			out = append(out, p)
		}
	}
	return out
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *xhtml.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func classes(n *xhtml.Node) []string {
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *xhtml.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// children converts every child of n with n added to the parent chain
func (pc *pageConverter) children(n *xhtml.Node, parents []string) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(pc.process(c, parents))
	}
	return sb.String()
}

// process converts a node and its subtree
func (pc *pageConverter) process(n *xhtml.Node, parents []string) string {
	switch n.Type {
	case xhtml.TextNode:
		return processText(n, parents)
	case xhtml.ElementNode:
	default:
		return ""
	}

	childParents := append(append([]string(nil), parents...), n.Data)
	if inlineContainers[n.DataAtom] {
		childParents = append(childParents, inline)
	}
	if n.DataAtom == atom.Pre || n.DataAtom == atom.Code || n.DataAtom == atom.Kbd || n.DataAtom == atom.Samp {
		childParents = append(childParents, noformat)
	}

	text := ""
	if !selfRendering[n.DataAtom] {
		text = pc.children(n, childParents)
	}

	if fn, ok := tagFuncs[n.DataAtom]; ok {
		return fn(pc, n, text, parents)
	}
	return text
}

var (
	whitespaceRun = regexp.MustCompile(`[\t \r\n]+`)
	markdownChars = strings.NewReplacer(`*`, `\*`, `_`, `\_`)
)

func processText(n *xhtml.Node, parents []string) string {
	text := n.Data
	if has(parents, "pre") {
		return text
	}

	text = whitespaceRun.ReplaceAllString(text, " ")

	if n.PrevSibling == nil && isBlock(n.Parent) || isBlock(n.PrevSibling) {
		text = strings.TrimLeft(text, " ")
	}
	if n.NextSibling == nil && isBlock(n.Parent) || isBlock(n.NextSibling) {
		text = strings.TrimRight(text, " ")
	}

	if has(parents, noformat) {
		return text
	}
	return markdownChars.Replace(text)
}

// chomp moves surrounding spaces outside inline markup
func chomp(text string) (string, string, string) {
	prefix, suffix := "", ""
	if strings.HasPrefix(text, " ") {
		prefix = " "
	}
	if strings.HasSuffix(text, " ") {
		suffix = " "
	}
	return prefix, strings.TrimSpace(text), suffix
}

func drop(*pageConverter, *xhtml.Node, string, []string) string {
	return ""
}

func emphasis(marker string) tagFunc {
	return func(_ *pageConverter, _ *xhtml.Node, text string, parents []string) string {
		if has(parents, noformat) {
			return text
		}
		prefix, text, suffix := chomp(text)
		if text == "" {
			return ""
		}
		return prefix + marker + text + marker + suffix
	}
}

func convertCode(_ *pageConverter, _ *xhtml.Node, text string, parents []string) string {
	if has(parents, "pre") {
		return text
	}
	prefix, text, suffix := chomp(text)
	if text == "" {
		return ""
	}
	return prefix + "`" + text + "`" + suffix
}

func convertBreak(_ *pageConverter, _ *xhtml.Node, _ string, parents []string) string {
	if has(parents, inline) {
		return " "
	}
	return "  \n"
}

func convertParagraph(_ *pageConverter, _ *xhtml.Node, text string, parents []string) string {
	if has(parents, inline) {
		return " " + strings.TrimSpace(text) + " "
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return "\n\n" + text + "\n\n"
}

func convertHeading(_ *pageConverter, n *xhtml.Node, text string, parents []string) string {
	text = strings.TrimSpace(text)
	if has(parents, inline) {
		return text
	}
	level, _ := strconv.Atoi(strings.TrimPrefix(n.Data, "h"))
	if text == "" {
		return ""
	}
	return "\n\n" + strings.Repeat("#", level) + " " + text + "\n\n"
}

func convertRule(*pageConverter, *xhtml.Node, string, []string) string {
	return "\n\n---\n\n"
}

var lineStart = regexp.MustCompile(`(?m)^`)

func quote(text string) string {
	text = collapseBlankLines(strings.TrimSpace(text))
	return lineStart.ReplaceAllString(text, "> ")
}

func convertBlockquote(_ *pageConverter, _ *xhtml.Node, text string, parents []string) string {
	if has(parents, inline) {
		return " " + strings.TrimSpace(text) + " "
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "\n" + quote(text) + "\n\n"
}

func convertList(_ *pageConverter, n *xhtml.Node, text string, parents []string) string {
	if len(parents) > 0 && parents[len(parents)-1] == "li" {
		return "\n" + strings.TrimRight(text, "\n")
	}
	return "\n\n" + text + "\n"
}

// convertListItem bullets an item; task items get a checkbox spliced onto
// the first bullet
func convertListItem(_ *pageConverter, n *xhtml.Node, text string, parents []string) string {
	bullet := "- "
	if n.Parent != nil && n.Parent.DataAtom == atom.Ol {
		start := 1
		if s, err := strconv.Atoi(attr(n.Parent, "start")); err == nil {
			start = s
		}
		index := 0
		for sib := n.Parent.FirstChild; sib != nil && sib != n; sib = sib.NextSibling {
			if sib.Type == xhtml.ElementNode && sib.DataAtom == atom.Li {
				index++
			}
		}
		bullet = strconv.Itoa(start+index) + ". "
	}

	text = strings.TrimSpace(text)
	indent := strings.Repeat(" ", len(bullet))
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	md := bullet + strings.Join(lines, "\n") + "\n"

	if hasAttr(n, "data-inline-task-id") {
		box := "[ ] "
		if hasClass(n, "checked") {
			box = "[x] "
		}
		md = strings.Replace(md, "- ", "- "+box, 1)
	}
	return md
}

var brushPattern = regexp.MustCompile(`brush:\s*([^;]+)`)

func convertPre(_ *pageConverter, n *xhtml.Node, text string, _ []string) string {
	if text == "" {
		return ""
	}
	lang := ""
	if m := brushPattern.FindStringSubmatch(attr(n, "data-syntaxhighlighter-params")); m != nil {
		lang = strings.TrimSpace(m[1])
	}
	return "\n\n```" + lang + "\n" + text + "\n```\n\n"
}

// convertSup treats a superscript without a preceding sibling as a footnote
// definition and any other as a footnote reference
func convertSup(_ *pageConverter, n *xhtml.Node, text string, _ []string) string {
	if n.PrevSibling == nil {
		return "[^" + text + "]:"
	}
	return "[^" + text + "]"
}

func convertSub(_ *pageConverter, _ *xhtml.Node, text string, _ []string) string {
	return "<sub>" + text + "</sub>"
}

func convertTime(_ *pageConverter, n *xhtml.Node, text string, _ []string) string {
	if hasAttr(n, "datetime") {
		return attr(n, "datetime")
	}
	return text
}

func convertAnchor(pc *pageConverter, n *xhtml.Node, text string, parents []string) string {
	if has(parents, noformat) {
		return text
	}

	l := reference.Link{
		Href:         attr(n, "href"),
		Title:        attr(n, "title"),
		Text:         text,
		Classes:      classes(n),
		ResourceType: attr(n, "data-linked-resource-type"),
		ResourceID:   attr(n, "data-linked-resource-id"),
		ContainerID:  attr(n, "data-linked-resource-container-id"),
	}

	if first := n.FirstChild; first != nil {
		if first.Type == xhtml.TextNode {
			l.Label = first.Data
		} else {
			l.Label = pc.process(first, append(append([]string(nil), parents...), "a"))
		}
	}

	return pc.links.Resolve(pc.ctx, pc.ref, l)
}

func imageMarkdown(n *xhtml.Node, src string) string {
	title := ""
	if t := attr(n, "title"); t != "" {
		title = ` "` + strings.ReplaceAll(t, `"`, `\"`) + `"`
	}
	return "![" + attr(n, "alt") + "](" + src + title + ")"
}

// convertImage links attachment-backed images to the attachment file and
// stores any other source under the assets directory. Images always render,
// including inside headings and table cells.
func convertImage(pc *pageConverter, n *xhtml.Node, _ string, _ []string) string {
	ref := asset.Ref{
		FileID:      attr(n, "data-media-id"),
		ID:          attr(n, "data-linked-resource-id"),
		ContainerID: attr(n, "data-linked-resource-container-id"),
	}

	if !ref.IsZero() {
		a, err := pc.assets.FindAttachment(pc.ctx, pc.page, ref)
		if err == nil {
			href, err := pc.assets.Link(pc.ctx, pc.path, a)
			if err == nil {
				return imageMarkdown(n, href)
			}
			pc.logger.Warn().Err(err).Str("attachment_id", a.ID).Msg("could not link attachment image")
		} else {
			pc.logger.Debug().Err(err).Msg("image attachment not found, using source")
		}
	}

	src := attr(n, "src")
	if src == "" {
		return ""
	}

	local := pc.assets.Image(pc.ctx, pc.path, src)
	if local == "" {
		return ""
	}
	return imageMarkdown(n, local)
}
