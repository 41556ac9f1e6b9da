/*
Package reference rewrites anchors found in page markup into Markdown links.

Links are dispatched through an ordered list of matchers where the first
match wins: user mentions, create-page placeholders, linked pages, linked
attachments, page URLs, /display/ space+title URLs and in-page heading
anchors. Anything else, and any link whose target cannot be loaded, is
emitted as a plain link to its original href.
*/
package reference
