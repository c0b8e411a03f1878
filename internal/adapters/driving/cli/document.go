package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

var documentsJSON bool

var documentCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage ingested documents",
	Long:    `List, inspect, print or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Long:  `Prints the document text reassembled from its chunks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Long: `Removes the document and its chunks. Their vectors are tombstoned and
excluded from retrieval immediately; run "docuquery index compact" to reclaim
the space.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

func init() {
	documentListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentGetCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

type documentJSON struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path,omitempty"`
	MIMEType  string    `json:"mime_type,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDocumentJSON(doc *domain.Document) documentJSON {
	return documentJSON{
		ID:        doc.ID,
		Filename:  doc.Filename,
		Path:      doc.Path,
		MIMEType:  doc.MIMEType,
		Status:    string(doc.Status),
		Error:     doc.Error,
		Chunks:    doc.ChunkCount(),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return unavailable("document")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		out := make([]documentJSON, len(docs))
		for i := range docs {
			out[i] = toDocumentJSON(&docs[i])
		}
		return printJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for i := range docs {
		doc := &docs[i]
		cmd.Printf("  %s  %-10s %4d chunks  %s\n", doc.ID, doc.Status, doc.ChunkCount(), doc.Filename)
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentsJSON {
		return printJSON(cmd, toDocumentJSON(doc))
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Filename: %s\n", doc.Filename)
	if doc.Path != "" {
		cmd.Printf("  Path:     %s\n", doc.Path)
	}
	if doc.MIMEType != "" {
		cmd.Printf("  Type:     %s\n", doc.MIMEType)
	}
	cmd.Printf("  Status:   %s\n", doc.Status)
	if doc.Error != "" {
		cmd.Printf("  Error:    %s\n", doc.Error)
	}
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount())
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document")
	}

	content, err := documentService.GetContent(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return unavailable("document")
	}

	removed, err := documentService.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s (%d chunks removed)\n", args[0], removed)
	return nil
}
