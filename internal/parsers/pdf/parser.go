// Package pdf provides the parser for PDF files. Text extraction is
// delegated to the poppler pdftotext tool; page boundaries from its
// output are retained as metadata so page numbers survive into
// retrieval results.
package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// CommandRunner executes an external command and returns its stdout.
// Abstracted for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Parser handles PDF files via pdftotext.
type Parser struct {
	runner CommandRunner
}

// New creates a PDF parser using the system pdftotext binary.
func New() *Parser {
	return &Parser{runner: execRunner{}}
}

// NewWithRunner creates a PDF parser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Parser {
	return &Parser{runner: runner}
}

// Format returns the canonical format name.
func (p *Parser) Format() string { return "pdf" }

// Supports reports whether this parser can handle the entry.
func (p *Parser) Supports(entry domain.SourceEntry) bool {
	return entry.Kind == domain.SourceFile &&
		strings.EqualFold(filepath.Ext(entry.Location), ".pdf")
}

// Parse extracts page-ordered text. pdftotext separates pages with
// form feeds; those become paragraph breaks, and the byte offset of
// each page start is recorded in metadata.
func (p *Parser) Parse(ctx context.Context, entry domain.SourceEntry) (*domain.Document, error) {
	if _, err := os.Stat(entry.Location); err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	// -layout preserves reading order, "-" streams to stdout.
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", entry.Location, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w (%s)", err, InstallInstructions())
	}

	text, pageOffsets := joinPages(string(out))

	meta := map[string]any{
		domain.MetaTitle: strings.TrimSuffix(filepath.Base(entry.Location), filepath.Ext(entry.Location)),
	}
	if len(pageOffsets) > 0 {
		meta[domain.MetaPageOffsets] = pageOffsets
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

// joinPages splits pdftotext output on form feeds, cleans each page
// and rejoins them with blank lines, returning the offset at which
// each non-empty page starts.
func joinPages(raw string) (string, []int) {
	var b strings.Builder
	var offsets []int

	for _, page := range strings.Split(raw, "\f") {
		var lines []string
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimRight(line, " \t")
			lines = append(lines, line)
		}
		cleaned := strings.TrimSpace(strings.Join(lines, "\n"))
		if cleaned == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		offsets = append(offsets, b.Len())
		b.WriteString(cleaned)
	}

	return b.String(), offsets
}

// InstallInstructions explains how to install the pdftotext dependency.
func InstallInstructions() string {
	return "pdftotext not found: install poppler (macOS: brew install poppler, Debian/Ubuntu: apt install poppler-utils)"
}
