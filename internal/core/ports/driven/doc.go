// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Parser: Extracts normalised text from one source format
//   - ParserRegistry: Selects the parser for a manifest entry
//   - EmbeddingService: Converts text into fixed-dimension vectors
//   - VectorSearcher: Top-k similarity search over an index snapshot
//   - IndexProvider: Hands out the live immutable index snapshot
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CompletionService: Answer generation. Without it, retrieval
//     results are returned without a generated answer.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
