// Package model holds the exported entities: spaces, pages, attachments,
// labels and issues. Values are built once from API responses and not
// mutated afterwards.
package model
