// Package manifest reads the source manifest: the ordered list of
// files and URLs the index is built from.
//
// The format is line-oriented, one record per line:
//
//	kind, location
//
// where kind is "file" or "url". Blank lines and lines starting with
// '#' are ignored. Locations may themselves contain commas; only the
// first comma separates the fields.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/logger"
)

// Parse reads manifest records from r. Records with an unknown kind
// or a missing location are skipped with a warning rather than
// failing the whole manifest; order of valid records is preserved.
func Parse(r io.Reader) ([]domain.SourceEntry, error) {
	var entries []domain.SourceEntry

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kind, location, found := strings.Cut(line, ",")
		if !found {
			logger.Warn("manifest line %d: missing location: %q", lineNum, line)
			continue
		}

		entry := domain.SourceEntry{
			Kind:     domain.SourceKind(strings.TrimSpace(kind)),
			Location: strings.TrimSpace(location),
		}
		if !entry.Kind.Valid() {
			logger.Warn("manifest line %d: unsupported kind %q", lineNum, entry.Kind)
			continue
		}
		if entry.Location == "" {
			logger.Warn("manifest line %d: empty location", lineNum)
			continue
		}

		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return entries, nil
}

// Load parses the manifest file at path.
func Load(path string) ([]domain.SourceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	return Parse(f)
}
