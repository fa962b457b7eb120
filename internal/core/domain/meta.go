package domain

// Conventional document metadata keys shared between parsers and the
// chunker. Values are best-effort hints; absence is always legal.
const (
	// MetaHeadingOffsets is a []int of byte offsets into Document.Text
	// where headings start. The chunker prefers these as structural
	// split boundaries.
	MetaHeadingOffsets = "heading_offsets"

	// MetaPageOffsets is a []int of byte offsets where PDF pages
	// start. Page boundaries double as structural split boundaries.
	MetaPageOffsets = "page_offsets"

	// MetaTitle is the document title extracted by the parser.
	MetaTitle = "title"

	// MetaColumns is a []string of CSV column headers.
	MetaColumns = "columns"
)
