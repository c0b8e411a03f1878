package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/custodia-labs/docuquery/internal/adapters/driven/ai"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// mockIngestService implements driving.IngestService for CLI tests.
type mockIngestService struct {
	IngestFunc     func(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error)
	IngestFileFunc func(ctx context.Context, path string) (*driving.IngestResult, error)
	RemoveFileFunc func(ctx context.Context, path string) (int, error)
}

func (m *mockIngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, req)
	}
	id := req.DocumentID
	if id == "" {
		id = "doc-new"
	}
	return &driving.IngestResult{DocumentID: id, ChunkCount: 1, Status: domain.StatusProcessed}, nil
}

func (m *mockIngestService) IngestFile(ctx context.Context, path string) (*driving.IngestResult, error) {
	if m.IngestFileFunc != nil {
		return m.IngestFileFunc(ctx, path)
	}
	return &driving.IngestResult{DocumentID: "doc-file", ChunkCount: 2, Status: domain.StatusProcessed}, nil
}

func (m *mockIngestService) RemoveFile(ctx context.Context, path string) (int, error) {
	if m.RemoveFileFunc != nil {
		return m.RemoveFileFunc(ctx, path)
	}
	return 2, nil
}

// mockQueryService implements driving.QueryService for CLI tests.
type mockQueryService struct {
	QueryFunc    func(ctx context.Context, question string, topK int) (*domain.Answer, error)
	RetrieveFunc func(ctx context.Context, question string, topK int) (domain.RetrievalResult, error)
}

func (m *mockQueryService) Query(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, question, topK)
	}
	return testAnswer(question), nil
}

func (m *mockQueryService) Retrieve(ctx context.Context, question string, topK int) (domain.RetrievalResult, error) {
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, question, topK)
	}
	return domain.RetrievalResult{
		Query: question,
		Chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{ID: "c1", DocumentID: "doc-1", Position: 0, Content: "Returns are accepted within 30 days."}, Score: 0.91},
		},
	}, nil
}

// mockDocumentService implements driving.DocumentService for CLI tests.
type mockDocumentService struct {
	ListFunc       func(ctx context.Context) ([]domain.Document, error)
	GetFunc        func(ctx context.Context, id string) (*domain.Document, error)
	GetContentFunc func(ctx context.Context, id string) (string, error)
	DeleteFunc     func(ctx context.Context, id string) (int, error)
	StatsFunc      func(ctx context.Context) (*domain.IndexStats, error)
	CompactFunc    func(ctx context.Context) (int, error)
}

func (m *mockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{*testDocument()}, nil
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	if id != "doc-1" {
		return nil, domain.ErrNotFound
	}
	return testDocument(), nil
}

func (m *mockDocumentService) GetContent(ctx context.Context, id string) (string, error) {
	if m.GetContentFunc != nil {
		return m.GetContentFunc(ctx, id)
	}
	return "Returns are accepted within 30 days.", nil
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) (int, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return 3, nil
}

func (m *mockDocumentService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &domain.IndexStats{
		Documents:         map[domain.DocumentStatus]int{domain.StatusProcessed: 4, domain.StatusFailed: 1},
		Chunks:            12,
		LiveVectors:       12,
		TombstonedVectors: 3,
		Dimensions:        768,
	}, nil
}

func (m *mockDocumentService) Compact(ctx context.Context) (int, error) {
	if m.CompactFunc != nil {
		return m.CompactFunc(ctx)
	}
	return 3, nil
}

// mockSettingsService implements driving.SettingsService for CLI tests.
type mockSettingsService struct {
	settings domain.Settings
	set      map[string]string
	SetFunc  func(key, value string) error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"chunking.chunk_size", "llm.api_key", "retrieval.top_k"}
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func (m *mockSettingsService) Validate() error {
	return m.settings.Validate()
}

func testDocument() *domain.Document {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &domain.Document{
		ID:        "doc-1",
		Filename:  "returns.md",
		Path:      "/docs/returns.md",
		MIMEType:  "text/markdown",
		ChunkIDs:  []string{"c1", "c2"},
		Status:    domain.StatusProcessed,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func testAnswer(question string) *domain.Answer {
	return &domain.Answer{
		Question: question,
		Text:     "Returns are accepted within 30 days [Source 1].",
		Sources: []domain.Source{
			{DocumentID: "doc-1", Filename: "returns.md", ChunkID: "c1", Position: 0, Score: 0.91, Preview: "Returns are accepted\nwithin 30 days."},
		},
		Confidence: 0.91,
	}
}

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous wiring.
func setupTestServices() func() {
	oldIngest, oldQuery, oldDocs, oldSettings := ingestService, queryService, documentService, settingsService
	oldCheck, oldStartup := providerCheck, startupErr

	SetServices(&mockIngestService{}, &mockQueryService{}, &mockDocumentService{}, newMockSettingsService())
	providerCheck = func(context.Context) []ai.ProviderStatus {
		return []ai.ProviderStatus{
			{Kind: "embedding", Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		}
	}
	startupErr = nil

	return func() {
		SetServices(oldIngest, oldQuery, oldDocs, oldSettings)
		providerCheck, startupErr = oldCheck, oldStartup
	}
}

// resetFlags clears flag variables, which persist between Execute calls.
func resetFlags() {
	verbose = false
	ingestText, ingestName, ingestID = "", "", ""
	queryTopK, queryJSON, queryRetrieve = 0, false, false
	documentsJSON = false
	statusJSON = false
	watchSkipInitial = false
	tuiTopK = 0
	queryCmd.Flags().Lookup("top-k").Changed = false
	tuiCmd.Flags().Lookup("top-k").Changed = false
}

// execute runs the root command with args and returns combined output.
func execute(args ...string) (string, error) {
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
