// Package domain defines the core business entities for policybot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceEntry: One record of the source manifest
//   - Document: The normalised text of a parsed source
//   - Chunk: The unit of embedding and retrieval
//   - Category: The closed content-label set
//   - IndexManifest: Provenance of the persisted index
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
