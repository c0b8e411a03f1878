// Package domain defines the core business entities for docuquery.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document and its lifecycle status
//   - Chunk: A retrievable text span within a document
//   - RetrievalResult: Ranked chunks for a question
//   - Answer: A generated answer with its grounding and confidence
//   - Settings: Runtime configuration
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
