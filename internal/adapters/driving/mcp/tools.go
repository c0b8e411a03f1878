package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// DefaultTopK is used when a query omits top_k and no retrieval.top_k
// setting is available.
const DefaultTopK = 3

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	Question string `json:"question" jsonschema:"the natural-language question to answer"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to ground the answer on; omit to use the retrieval.top_k setting"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Answer     string         `json:"answer"`
	Confidence float64        `json:"confidence"`
	Sources    []SourceOutput `json:"sources"`
}

// SourceOutput describes one chunk the answer was grounded on.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkID    string  `json:"chunk_id"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Text       string `json:"text" jsonschema:"the plain text to index"`
	Filename   string `json:"filename,omitempty" jsonschema:"display name used when citing this document"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"optional document ID; generated when empty"`
}

// IngestOutput is the output schema for the ingest_text tool.
type IngestOutput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentIDInput identifies a single document.
type DocumentIDInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document ID"`
}

// DocumentOutput describes an ingested document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Path       string `json:"path,omitempty"`
	MIMEType   string `json:"mime_type,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// DeleteOutput is the output schema for delete_document.
type DeleteOutput struct {
	DocumentID    string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// StatsInput is the (empty) input schema for stats.
type StatsInput struct{}

// StatsOutput is the output schema for stats.
type StatsOutput struct {
	Documents         map[string]int `json:"documents"`
	TotalDocuments    int            `json:"total_documents"`
	Chunks            int            `json:"chunks"`
	LiveVectors       int            `json:"live_vectors"`
	TombstonedVectors int            `json:"tombstoned_vectors"`
	Dimensions        int            `json:"dimensions"`
}

// registerTools registers all tool handlers with the MCP server.
// Tools whose port is missing are left out.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Answer a question from the indexed documents, citing the chunks used",
	}, s.handleQuery)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Chunk, embed and index a piece of text as a new document",
		}, s.handleIngestText)
	}

	if s.ports.Document == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List indexed documents, most recent first",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get metadata and status for a single document",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document and remove its chunks from search",
	}, s.handleDeleteDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Report document counts and vector index health",
	}, s.handleStats)
}

// handleQuery handles the query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	topK := input.TopK
	if topK < 0 {
		return nil, QueryOutput{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}
	if topK == 0 {
		topK = s.defaultTopK()
	}

	answer, err := s.ports.Query.Query(ctx, input.Question, topK)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Answer:     answer.Text,
		Confidence: answer.Confidence,
		Sources:    make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			DocumentID: src.DocumentID,
			Filename:   src.Filename,
			ChunkID:    src.ChunkID,
			Position:   src.Position,
			Score:      src.Score,
			Preview:    src.Preview,
		}
	}

	return nil, output, nil
}

// defaultTopK returns the configured retrieval.top_k, falling back to
// DefaultTopK.
func (s *Server) defaultTopK() int {
	if s.ports.Settings == nil {
		return DefaultTopK
	}
	settings, err := s.ports.Settings.Get()
	if err != nil || settings.Retrieval.TopK <= 0 {
		return DefaultTopK
	}
	return settings.Retrieval.TopK
}

// handleIngestText handles the ingest_text tool invocation.
func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	result, err := s.ports.Ingest.Ingest(ctx, driving.IngestRequest{
		DocumentID: input.DocumentID,
		Text:       input.Text,
		Filename:   input.Filename,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		DocumentID: result.DocumentID,
		ChunkCount: result.ChunkCount,
		Status:     result.Status.String(),
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = toDocumentOutput(&docs[i])
	}

	return nil, output, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	doc, err := s.ports.Document.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, DocumentOutput{}, err
	}
	return nil, toDocumentOutput(doc), nil
}

// handleDeleteDocument handles the delete_document tool invocation.
func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	removed, err := s.ports.Document.Delete(ctx, input.DocumentID)
	if err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{DocumentID: input.DocumentID, ChunksRemoved: removed}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Document.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	byStatus := make(map[string]int, len(stats.Documents))
	for status, n := range stats.Documents {
		byStatus[status.String()] = n
	}

	return nil, StatsOutput{
		Documents:         byStatus,
		TotalDocuments:    stats.TotalDocuments(),
		Chunks:            stats.Chunks,
		LiveVectors:       stats.LiveVectors,
		TombstonedVectors: stats.TombstonedVectors,
		Dimensions:        stats.Dimensions,
	}, nil
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Path:       doc.Path,
		MIMEType:   doc.MIMEType,
		Status:     doc.Status.String(),
		Error:      doc.Error,
		ChunkCount: doc.ChunkCount(),
		CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  doc.UpdatedAt.Format(time.RFC3339),
	}
}
