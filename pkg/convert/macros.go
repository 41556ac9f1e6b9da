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
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// MacroFunc converts a macro container. Returning false hands the element
// to the generic conversion of its tag.
type MacroFunc func(pc *pageConverter, n *xhtml.Node, text string, parents []string) (string, bool)

var (
	divMacros  = map[string]MacroFunc{}
	spanMacros = map[string]MacroFunc{}
)

// 📝 RegisterDivMacro registers a handler for block macros by name
func RegisterDivMacro(name string, fn MacroFunc) {
	divMacros[name] = fn
}

// 📝 RegisterSpanMacro registers a handler for inline macros by name
func RegisterSpanMacro(name string, fn MacroFunc) {
	spanMacros[name] = fn
}

func init() {
	for name := range alertTypes {
		RegisterDivMacro(name, convertAlert)
	}
	RegisterDivMacro("details", convertDetails)
	RegisterDivMacro("drawio", convertDrawio)
	RegisterDivMacro("scroll-ignore", convertHiddenContent)
	RegisterDivMacro("toc", convertTOC)
	RegisterDivMacro("jira", convertIssueTable)

	RegisterSpanMacro("jira", convertIssue)
}

// alertTypes maps callout macros to alert labels
var alertTypes = map[string]string{
	"info":    "IMPORTANT",
	"panel":   "NOTE",
	"tip":     "TIP",
	"note":    "WARNING",
	"warning": "CAUTION",
}

// AlertType returns the alert label for a macro name, NOTE when unmapped
func AlertType(macro string) string {
	if t, ok := alertTypes[macro]; ok {
		return t
	}
	return "NOTE"
}

func convertDiv(pc *pageConverter, n *xhtml.Node, text string, parents []string) string {
	if name := attr(n, "data-macro-name"); name != "" {
		if pc.ignore[name] {
			return ""
		}
		if fn, ok := divMacros[name]; ok {
			if out, handled := fn(pc, n, text, parents); handled {
				return out
			}
		}
	}

	if strings.Contains(attr(n, "class"), "columnLayout") {
		return convertColumnLayout(pc, n, text, parents)
	}

	return convertParagraph(pc, n, text, parents)
}

func convertSpan(pc *pageConverter, n *xhtml.Node, text string, parents []string) string {
	if name := attr(n, "data-macro-name"); name != "" {
		if fn, ok := spanMacros[name]; ok {
			if out, handled := fn(pc, n, text, parents); handled {
				return out
			}
		}
	}
	return text
}

func convertAlert(pc *pageConverter, n *xhtml.Node, text string, parents []string) (string, bool) {
	return "\n> [!" + AlertType(attr(n, "data-macro-name")) + "]" + convertBlockquote(pc, n, text, parents), true
}

// convertDetails collects a property panel into the front matter and then
// renders the panel as an ordinary container
func convertDetails(pc *pageConverter, n *xhtml.Node, _ string, _ []string) (string, bool) {
	goquery.NewDocumentFromNode(n).Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		key := strings.TrimSpace(cells.First().Text())
		if key == "" {
			return
		}
		pc.props.Set(key, strings.TrimSpace(pc.convertNode(cells.Get(1))))
	})
	return "", false
}

var diagramNamePattern = regexp.MustCompile(`\|diagramName=(.+?)\|`)

// convertDrawio links the diagram preview image to the diagram source
func convertDrawio(pc *pageConverter, n *xhtml.Node, _ string, _ []string) (string, bool) {
	m := diagramNamePattern.FindStringSubmatch(outerHTML(n))
	if m == nil {
		return "", true
	}
	name := m[1]

	sources := pc.page.AttachmentsByTitle(name)
	previews := pc.page.AttachmentsByTitle(name + ".png")
	if len(sources) == 0 || len(previews) == 0 {
		return "\n<!-- Drawio diagram `" + name + "` not found -->\n\n", true
	}

	source, err := pc.assets.Link(pc.ctx, pc.path, sources[0])
	if err != nil {
		pc.logger.Warn().Err(err).Str("diagram", name).Msg("could not link diagram")
		return "\n<!-- Drawio diagram `" + name + "` not found -->\n\n", true
	}
	preview, err := pc.assets.Link(pc.ctx, pc.path, previews[0])
	if err != nil {
		pc.logger.Warn().Err(err).Str("diagram", name).Msg("could not link diagram preview")
		return "\n<!-- Drawio diagram `" + name + "` not found -->\n\n", true
	}

	return "\n[![" + name + "](" + preview + ")](" + source + ")\n\n", true
}

func convertHiddenContent(pc *pageConverter, n *xhtml.Node, text string, parents []string) (string, bool) {
	return "\n<!--" + convertParagraph(pc, n, text, parents) + "-->\n", true
}

// exportViewSingle finds the one element matching selector in the export
// view. Zero or several matches are logged and reported as missing.
func (pc *pageConverter) exportViewSingle(selector, macro string) *xhtml.Node {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pc.page.BodyExport))
	if err != nil {
		pc.logger.Warn().Err(err).Str("macro", macro).Msg("could not parse export view")
		return nil
	}

	found := doc.Find(selector)
	switch found.Length() {
	case 0:
		pc.logger.Warn().Str("macro", macro).Msg("no matching element in export view, ignoring macro")
		return nil
	case 1:
		return found.Get(0)
	default:
		pc.logger.Warn().Str("macro", macro).Int("count", found.Length()).Msg("multiple matching elements in export view are not supported, ignoring macro")
		return nil
	}
}

// convertTOC replaces the interactive table of contents with the one
// rendered in the export view
func convertTOC(pc *pageConverter, _ *xhtml.Node, text string, parents []string) (string, bool) {
	toc := pc.exportViewSingle("div.toc-macro", "toc")
	if toc == nil {
		return text, true
	}
	return pc.processContainer(toc, parents), true
}

// convertIssueTable replaces an issue table macro with the table rendered
// in the export view
func convertIssueTable(pc *pageConverter, _ *xhtml.Node, text string, parents []string) (string, bool) {
	table := pc.exportViewSingle("div.jira-table", "jira")
	if table == nil {
		return text, true
	}
	return pc.processContainer(table, parents), true
}

// convertIssue renders a single issue reference with its summary
func convertIssue(pc *pageConverter, n *xhtml.Node, text string, parents []string) (string, bool) {
	key := attr(n, "data-jira-key")
	link := goquery.NewDocumentFromNode(n).Find("a.jira-issue-key").First()

	if key == "" {
		if link.Length() == 0 {
			return text, true
		}
		return pc.process(link.Get(0), parents), true
	}
	if link.Length() == 0 {
		return text, true
	}

	href := link.AttrOr("href", "")
	issue, err := pc.issues.Issue(pc.ctx, key)
	if err != nil {
		pc.logger.Warn().Err(err).Str("issue", key).Msg("could not load issue, linking key only")
		return "[[" + key + "]](" + href + ")", true
	}
	return "[[" + issue.Key + "] " + issue.Summary + "](" + href + ")", true
}

func outerHTML(n *xhtml.Node) string {
	var sb strings.Builder
	if err := xhtml.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// processContainer converts n as a generic block container, bypassing macro
// dispatch so export-view copies of a macro cannot recurse
func (pc *pageConverter) processContainer(n *xhtml.Node, parents []string) string {
	childParents := append(append([]string(nil), parents...), n.Data)
	return convertParagraph(pc, n, pc.children(n, childParents), parents)
}
