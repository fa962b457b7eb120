// Package html provides the parser for HTML files and url manifest
// entries. Tags are stripped; heading positions in the stripped text
// are retained as metadata hints for the chunker.
package html

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/parsers/fetch"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles HTML documents, local or fetched over HTTP.
type Parser struct {
	fetcher *fetch.Client
}

// New creates an HTML parser. The fetcher is used for url entries;
// it may be nil when only local files are ingested.
func New(fetcher *fetch.Client) *Parser {
	return &Parser{fetcher: fetcher}
}

// Format returns the canonical format name.
func (p *Parser) Format() string { return "html" }

// Supports reports whether this parser can handle the entry.
// Every url entry is treated as HTML, matching how HR policy portals
// publish their content.
func (p *Parser) Supports(entry domain.SourceEntry) bool {
	if entry.Kind == domain.SourceURL {
		return true
	}
	ext := strings.ToLower(filepath.Ext(entry.Location))
	return ext == ".html" || ext == ".htm"
}

// Parse extracts tag-stripped text from the source. Heading offsets
// into the stripped text and the page title are kept as metadata.
func (p *Parser) Parse(ctx context.Context, entry domain.SourceEntry) (*domain.Document, error) {
	var raw []byte
	var err error

	switch entry.Kind {
	case domain.SourceURL:
		if p.fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher configured for url sources", domain.ErrInvalidInput)
		}
		raw, err = p.fetcher.Get(ctx, entry.Location)
	case domain.SourceFile:
		raw, err = os.ReadFile(entry.Location)
	default:
		return nil, domain.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	content := string(raw)
	title := extractTitle(content, entry.Location)
	headings := extractHeadings(content)
	text := stripHTML(content)

	meta := map[string]any{
		domain.MetaTitle: title,
	}
	if offsets := headingOffsets(text, headings); len(offsets) > 0 {
		meta[domain.MetaHeadingOffsets] = offsets
	}

	return &domain.Document{
		ID:       uuid.New().String(),
		Source:   entry,
		Format:   p.Format(),
		Text:     text,
		Metadata: meta,
		ParsedAt: time.Now(),
	}, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	headingTag        = regexp.MustCompile(`(?is)<h[1-6][^>]*>(.*?)</h[1-6]>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	navTag            = regexp.MustCompile(`(?is)<nav[^>]*>.*?</nav>`)
	footerTag         = regexp.MustCompile(`(?is)<footer[^>]*>.*?</footer>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
)

// extractTitle extracts a title from the <title> tag or falls back
// to the filename.
func extractTitle(content, uri string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := strings.TrimSpace(html.UnescapeString(matches[1]))
		if title != "" {
			return title
		}
	}

	filename := filepath.Base(uri)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// extractHeadings returns the inner text of every h1-h6 element in
// document order.
func extractHeadings(content string) []string {
	var headings []string
	for _, m := range headingTag.FindAllStringSubmatch(content, -1) {
		h := allTags.ReplaceAllString(m[1], "")
		h = strings.TrimSpace(html.UnescapeString(h))
		if h != "" {
			headings = append(headings, h)
		}
	}
	return headings
}

// headingOffsets locates each heading in the stripped text, scanning
// forward so repeated headings map to successive occurrences.
func headingOffsets(text string, headings []string) []int {
	var offsets []int
	pos := 0
	for _, h := range headings {
		i := strings.Index(text[pos:], h)
		if i < 0 {
			continue
		}
		offsets = append(offsets, pos+i)
		pos += i + len(h)
	}
	return offsets
}

// stripHTML removes markup and extracts readable text content.
// Block elements become paragraph breaks so the chunker can split
// structurally.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = navTag.ReplaceAllString(content, "")
	content = footerTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockElements.ReplaceAllString(content, "\n\n")
	content = blockElements.ReplaceAllString(content, "\n\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Rebuild with single blank lines between non-empty lines.
	var paragraphs []string
	for _, block := range strings.Split(content, "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
