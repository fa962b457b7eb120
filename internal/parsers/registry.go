package parsers

import (
	"fmt"

	"github.com/policybot-io/policybot/internal/core/domain"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
)

// Ensure Registry implements the port.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry selects the parser responsible for a manifest entry.
// Parsers are consulted in registration order; the first that
// supports the entry wins.
type Registry struct {
	parsers []driven.Parser
}

// NewRegistry creates a registry over the given parsers.
func NewRegistry(parsers ...driven.Parser) *Registry {
	return &Registry{parsers: parsers}
}

// Register appends a parser to the registry.
func (r *Registry) Register(p driven.Parser) {
	r.parsers = append(r.parsers, p)
}

// For returns the parser for the entry, or domain.ErrUnsupportedFormat
// when none matches.
func (r *Registry) For(entry domain.SourceEntry) (driven.Parser, error) {
	for _, p := range r.parsers {
		if p.Supports(entry) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", domain.ErrUnsupportedFormat, entry.Kind, entry.Location)
}
