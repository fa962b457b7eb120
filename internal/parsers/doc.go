// Package parsers provides format parsers that extract normalised
// UTF-8 text and metadata from manifest sources, plus the registry
// that selects the right parser for each entry.
//
// Parsers are deliberately forgiving about input but strict about
// output: whatever the source format, the produced Document carries
// plain text with Unix line endings, paragraph breaks as blank lines
// and structural hints (headings, pages, columns) in Metadata.
package parsers
