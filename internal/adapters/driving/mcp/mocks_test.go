package mcp

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer    *domain.Answer
	err       error
	lastQuery string
	lastTopK  int
}

func (m *mockQueryService) Query(_ context.Context, question string, topK int) (*domain.Answer, error) {
	m.lastQuery = question
	m.lastTopK = topK
	return m.answer, m.err
}

func (m *mockQueryService) Retrieve(_ context.Context, question string, _ int) (domain.RetrievalResult, error) {
	if m.answer != nil {
		return m.answer.Retrieval, m.err
	}
	return domain.RetrievalResult{Query: question}, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result  *driving.IngestResult
	err     error
	lastReq driving.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string) (*driving.IngestResult, error) {
	return m.result, m.err
}

func (m *mockIngestService) RemoveFile(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	content   string
	removed   int
	stats     *domain.IndexStats
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) (int, error) {
	return m.removed, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) Compact(_ context.Context) (int, error) {
	return 0, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings domain.Settings
	err      error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(_, _ string) error { return m.err }

func (m *mockSettingsService) Keys() []string { return nil }

func (m *mockSettingsService) GetDefaults() domain.Settings { return domain.DefaultSettings() }

func (m *mockSettingsService) Validate() error { return m.err }
