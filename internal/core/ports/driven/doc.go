// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Chunker: Splits extracted text into overlapping chunks
//   - EmbeddingService: Turns text into fixed-length vectors
//   - VectorIndex: Stores vectors and answers nearest-neighbour queries
//   - SnapshotStore: Byte-level durable storage for the index snapshot
//   - ChunkRegistry: Chunk text and position by chunk ID
//   - DocumentStore: Document metadata and lifecycle status
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, queries return retrieval only.
//   - NormaliserRegistry: Text extraction from files. Without it, only raw
//     text can be ingested.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
