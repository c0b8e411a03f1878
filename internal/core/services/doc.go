// Package services implements the driving port interfaces.
//
// Ingestion runs text through the Chunker, the EmbeddingGateway, the
// ChunkRegistry and the VectorIndex. Queries run through the Retriever
// and the AnswerComposer. Services depend only on ports; adapters are
// wired in by the composition root.
package services
