// Package chunker splits documents into overlapping, bounded-size
// passages ready for embedding.
//
// Splitting is structural first: the text is divided at heading and
// page offsets supplied by the parser, falling back to blank-line
// paragraph boundaries. Units that still exceed the chunk size are
// re-split with a fixed-size sliding window so that consecutive
// chunks overlap by exactly the configured amount.
package chunker

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/policybot-io/policybot/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// Chunker splits document text into categorised chunks.
type Chunker struct {
	chunkSize  int
	overlap    int
	classifier *domain.Classifier
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithCategories sets the classification rule set.
func WithCategories(rules []domain.CategoryRule) Option {
	return func(c *Chunker) {
		c.classifier = domain.NewClassifier(rules)
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultOverlap,
		classifier: domain.NewClassifier(domain.DefaultCategoryRules()),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay strictly below the chunk size or the window
	// never advances.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured maximum chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split divides the document into chunks. The result is deterministic
// and order-preserving: chunks appear in document order, each tagged
// with its span offsets and inferred category.
func (c *Chunker) Split(doc *domain.Document) []domain.Chunk {
	if doc == nil || doc.Text == "" {
		return nil
	}

	text := doc.Text

	// A short document is exactly one chunk, no overlap.
	var spans [][2]int
	if len(text) <= c.chunkSize {
		spans = [][2]int{{0, len(text)}}
	} else {
		for _, unit := range c.structuralUnits(doc) {
			spans = append(spans, c.window(unit[0], unit[1])...)
		}
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for _, span := range spans {
		chunkText := text[span[0]:span[1]]
		chunks = append(chunks, domain.Chunk{
			ID:             uuid.New().String(),
			DocumentID:     doc.ID,
			SourceLocation: doc.Source.Location,
			Text:           chunkText,
			StartOffset:    span[0],
			EndOffset:      span[1],
			Category:       c.classifier.Classify(chunkText),
		})
	}

	return chunks
}

// structuralUnits returns contiguous [start, end) spans covering the
// whole text, split at parser-supplied heading/page offsets and at
// blank-line paragraph boundaries. Adjacent units smaller than the
// chunk size are merged so structural splitting never produces a
// flood of tiny chunks.
func (c *Chunker) structuralUnits(doc *domain.Document) [][2]int {
	text := doc.Text
	boundarySet := map[int]struct{}{0: {}}

	for _, key := range []string{domain.MetaHeadingOffsets, domain.MetaPageOffsets} {
		if offsets, ok := doc.Metadata[key].([]int); ok {
			for _, off := range offsets {
				if off > 0 && off < len(text) {
					boundarySet[off] = struct{}{}
				}
			}
		}
	}

	// Paragraph boundaries: position after each blank-line run.
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], "\n\n")
		if j < 0 {
			break
		}
		pos := i + j
		for pos < len(text) && text[pos] == '\n' {
			pos++
		}
		if pos < len(text) {
			boundarySet[pos] = struct{}{}
		}
		i = pos
	}

	boundaries := make([]int, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Ints(boundaries)
	boundaries = append(boundaries, len(text))

	// Merge units forward while they fit within one chunk.
	var units [][2]int
	start := boundaries[0]
	for i := 1; i < len(boundaries); i++ {
		end := boundaries[i]
		next := len(text)
		if i+1 < len(boundaries) {
			next = boundaries[i+1]
		}
		if next-start > c.chunkSize || end == len(text) {
			units = append(units, [2]int{start, end})
			start = end
		}
	}

	return units
}

// window re-splits an oversized unit with a fixed-size sliding
// window. Consecutive windows overlap by exactly c.overlap characters
// except possibly the last, which is simply shorter.
func (c *Chunker) window(start, end int) [][2]int {
	if end-start <= c.chunkSize {
		return [][2]int{{start, end}}
	}

	var spans [][2]int
	pos := start
	for {
		wEnd := pos + c.chunkSize
		if wEnd >= end {
			spans = append(spans, [2]int{pos, end})
			return spans
		}
		spans = append(spans, [2]int{pos, wEnd})
		pos = wEnd - c.overlap
	}
}
