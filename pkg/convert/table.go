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
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func convertTable(pc *pageConverter, n *xhtml.Node, _ string, parents []string) string {
	if hasClass(n, "metadata-summary-macro") {
		return convertPropertiesReport(pc, n, parents)
	}
	return pc.renderTable(n, parents)
}

// tableRows returns the rows that belong to table itself, not to nested tables
func tableRows(table *xhtml.Node) []*xhtml.Node {
	var rows []*xhtml.Node
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xhtml.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Table:
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

// renderTable emits a pipe table. The first row is the header row.
func (pc *pageConverter) renderTable(table *xhtml.Node, parents []string) string {
	rowParents := append(append([]string(nil), parents...), "table", "tr")

	var rows [][]string
	width := 0
	for _, tr := range tableRows(table) {
		var cells []string
		for cell := tr.FirstChild; cell != nil; cell = cell.NextSibling {
			if cell.Type != xhtml.ElementNode || (cell.DataAtom != atom.Td && cell.DataAtom != atom.Th) {
				continue
			}
			cellParents := append(append([]string(nil), rowParents...), cell.Data, inline)
			text := strings.TrimSpace(cellEscaper.Replace(pc.children(cell, cellParents)))
			cells = append(cells, text)

			if span, err := strconv.Atoi(attr(cell, "colspan")); err == nil {
				for i := 1; i < span; i++ {
					cells = append(cells, "")
				}
			}
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, cells)
	}

	if width == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n")
	for i, cells := range rows {
		for len(cells) < width {
			cells = append(cells, "")
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sb.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// convertColumnLayout renders two or more layout cells as a single-row table
func convertColumnLayout(pc *pageConverter, n *xhtml.Node, text string, parents []string) string {
	cells := goquery.NewDocumentFromNode(n).Find("div.cell")
	if cells.Length() < 2 {
		return convertParagraph(pc, n, text, parents)
	}

	var sb strings.Builder
	sb.WriteString("<table><tr>")
	cells.Each(func(_ int, cell *goquery.Selection) {
		inner, err := goquery.OuterHtml(cell)
		if err != nil {
			return
		}
		sb.WriteString("<td>" + inner + "</td>")
	})
	sb.WriteString("</tr></table>")

	root, err := parseFragment(sb.String())
	if err != nil {
		pc.logger.Warn().Err(err).Msg("could not rebuild column layout, converting as a container")
		return convertParagraph(pc, n, text, parents)
	}
	table := findElement(root, "table")
	if table == nil {
		return convertParagraph(pc, n, text, parents)
	}
	return pc.renderTable(table, parents)
}

// convertPropertiesReport replaces a properties report with the table of
// the same query rendered in the export view
func convertPropertiesReport(pc *pageConverter, n *xhtml.Node, parents []string) string {
	cql := attr(n, "data-cql")
	if cql == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pc.page.BodyExport))
	if err != nil {
		pc.logger.Warn().Err(err).Msg("could not parse export view")
		return ""
	}

	var found *xhtml.Node
	doc.Find("table[data-cql]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.AttrOr("data-cql", "") == cql {
			found = s.Get(0)
			return false
		}
		return true
	})
	if found == nil {
		pc.logger.Debug().Str("cql", cql).Msg("no rendered properties report in export view")
		return ""
	}
	return pc.renderTable(found, parents)
}
