// Package csvfile provides the parser for CSV files. Each row is
// rendered as its own entity paragraph so row boundaries survive as
// structural chunk boundaries, matching how HR directories and
// benefit tables are usually published.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// MaxRows caps how many rows a single CSV contributes. Oversized
// exports are truncated rather than failing the source.
const MaxRows = 500

// Primary column candidates, checked in order, used as entity titles.
var primaryColumns = []string{"name", "title", "document name", "document_name", "filename"}

// Parser handles CSV files.
type Parser struct{}

// New creates a CSV parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the canonical format name.
func (p *Parser) Format() string { return "csv" }

// Supports reports whether this parser can handle the entry.
func (p *Parser) Supports(entry domain.SourceEntry) bool {
	return entry.Kind == domain.SourceFile &&
		strings.EqualFold(filepath.Ext(entry.Location), ".csv")
}

// Parse renders the CSV row-wise. Column headers are retained as
// metadata; every row becomes one "Header: value" paragraph titled
// by its primary column.
func (p *Parser) Parse(_ context.Context, entry domain.SourceEntry) (*domain.Document, error) {
	f, err := os.Open(entry.Location)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	primary := primaryColumn(headers)
	filename := filepath.Base(entry.Location)

	var paragraphs []string
	for row := 0; row < MaxRows; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}

		if text := renderRow(headers, record, primary, filename, row); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	return &domain.Document{
		ID:     uuid.New().String(),
		Source: entry,
		Format: p.Format(),
		Text:   strings.Join(paragraphs, "\n\n"),
		Metadata: map[string]any{
			domain.MetaTitle:   strings.TrimSuffix(filename, filepath.Ext(filename)),
			domain.MetaColumns: headers,
		},
		ParsedAt: time.Now(),
	}, nil
}

// primaryColumn picks the column used as the entity title: the first
// well-known name column, else column zero.
func primaryColumn(headers []string) int {
	for _, candidate := range primaryColumns {
		for i, h := range headers {
			if strings.EqualFold(h, candidate) {
				return i
			}
		}
	}
	return 0
}

// renderRow builds the entity paragraph for one record.
func renderRow(headers, record []string, primary int, filename string, row int) string {
	title := fmt.Sprintf("Entity %d", row+1)
	if primary < len(record) {
		if v := strings.TrimSpace(record[primary]); v != "" {
			title = v
		}
	}

	lines := []string{
		"Entity: " + title,
		"Source: " + filename,
	}
	for i, value := range record {
		value = strings.TrimSpace(value)
		if value == "" || i >= len(headers) {
			continue
		}
		if len(value) > 500 {
			value = value[:500] + "..."
		}
		lines = append(lines, headers[i]+": "+value)
	}

	if len(lines) == 2 {
		// Row had no usable values.
		return ""
	}
	return strings.Join(lines, "\n")
}
