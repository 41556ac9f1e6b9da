// Package lookup builds model values from a content source and memoizes
// them in bounded LRU caches, one per entity kind.
package lookup
