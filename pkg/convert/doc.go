/*
Package convert turns a page's rendered markup into a Markdown document.

Elements are converted bottom-up: every child is converted first and the
element's handler receives the resulting text. Handlers are looked up by
tag, and generic containers are further dispatched by their macro name
through a registry (see RegisterDivMacro and RegisterSpanMacro). Macros
that only render properly in the export view, such as the table of
contents or issue tables, are replaced by their export-view counterpart.

Property panels and page labels are collected into front matter while the
body converts. Documents are composed in one of two styles: GFM adds a
title heading and a breadcrumb trail of ancestor links, Obsidian omits
both.
*/
package convert
