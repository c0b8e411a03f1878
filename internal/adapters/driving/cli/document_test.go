package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commandNames := make([]string, 0, len(documentCmd.Commands()))
	for _, cmd := range documentCmd.Commands() {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "content", "delete"}, commandNames)
}

func TestDocumentCmd_ErrorsWithoutService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = nil

	for _, args := range [][]string{
		{"documents", "list"},
		{"documents", "get", "doc-1"},
		{"documents", "content", "doc-1"},
		{"documents", "delete", "doc-1"},
	} {
		_, err := execute(args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "document service not configured")
	}
}

func TestDocumentListCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("documents", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "returns.md")
	assert.Contains(t, out, "2 chunks")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = &mockDocumentService{
		ListFunc: func(context.Context) ([]domain.Document, error) { return nil, nil },
	}

	out, err := execute("docs", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested.")
}

func TestDocumentListCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("documents", "list", "--json")
	require.NoError(t, err)

	var got []documentJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "doc-1", got[0].ID)
	assert.Equal(t, "processed", got[0].Status)
	assert.Equal(t, 2, got[0].Chunks)
}

func TestDocumentGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("documents", "get", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-1")
	assert.Contains(t, out, "Filename: returns.md")
	assert.Contains(t, out, "Path:     /docs/returns.md")
	assert.Contains(t, out, "Chunks:   2")
	assert.Contains(t, out, "2026-03-01 09:30:00")
}

func TestDocumentGetCmd_ShowsFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	documentService = &mockDocumentService{
		GetFunc: func(_ context.Context, id string) (*domain.Document, error) {
			return &domain.Document{ID: id, Filename: "scan.pdf", Status: domain.StatusFailed, Error: "no extractable text"}, nil
		},
	}

	out, err := execute("documents", "get", "doc-9")

	require.NoError(t, err)
	assert.Contains(t, out, "Status:   failed")
	assert.Contains(t, out, "Error:    no extractable text")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("documents", "get", "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentContentCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("documents", "content", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Returns are accepted within 30 days.")
}

func TestDocumentDeleteCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var deleted string
	documentService = &mockDocumentService{
		DeleteFunc: func(_ context.Context, id string) (int, error) {
			deleted = id
			return 5, nil
		},
	}

	out, err := execute("documents", "delete", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "doc-1", deleted)
	assert.Contains(t, out, "Deleted doc-1 (5 chunks removed)")
}

func TestDocumentDeleteCmd_RequiresID(t *testing.T) {
	_, err := execute("documents", "delete")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
