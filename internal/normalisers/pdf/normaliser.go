// Package pdf extracts the text layer of PDF files with github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the registered type for PDF files.
const MIMEType = "application/pdf"

// maxTitleLength bounds the first-line title heuristic.
const maxTitleLength = 200

// Document is the page-level view of a parsed PDF.
type Document interface {
	NumPage() int
	// PageText returns the plain text of page i (1-based). ok is false for
	// null pages, which are skipped.
	PageText(i int) (text string, ok bool, err error)
	// Title returns the Info dictionary title, or "".
	Title() string
}

// OpenFunc parses raw PDF bytes.
type OpenFunc func(data []byte) (Document, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	open OpenFunc
}

// New creates a PDF normaliser backed by ledongthuc/pdf.
func New() *Normaliser {
	return &Normaliser{open: openPDF}
}

// NewWithOpener creates a normaliser with a custom parser. Used in tests.
func NewWithOpener(open OpenFunc) *Normaliser {
	return &Normaliser{open: open}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise concatenates the text of every page, separated by blank lines.
// A PDF with no text layer (scanned images) fails with ErrExtractionFailed.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := n.open(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: open %s: %w", domain.ErrExtractionFailed, raw.Filename, err)
	}

	pages := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, ok, err := doc.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf: page %d of %s: %w", domain.ErrExtractionFailed, i, raw.Filename, err)
		}
		if !ok {
			logger.Debug("pdf: skipping null page %d of %s", i, raw.Filename)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	content := strings.Join(pages, "\n\n")
	if content == "" {
		return nil, fmt.Errorf("%w: pdf: %s has no text layer", domain.ErrExtractionFailed, raw.Filename)
	}
	logger.Debug("pdf: extracted %d chars from %d pages of %s", len(content), doc.NumPage(), raw.Filename)

	title := strings.TrimSpace(doc.Title())
	if title == "" {
		title = extractTitle(content, raw.URI)
	}

	return &driven.NormaliseResult{Content: content, Title: title}, nil
}

// extractTitle uses the first short non-empty line, then the filename.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength {
			return line
		}
	}

	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// ledongthucDocument adapts *pdf.Reader to Document.
type ledongthucDocument struct {
	r *pdf.Reader
}

func openPDF(data []byte) (doc Document, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &ledongthucDocument{r: r}, nil
}

func (d *ledongthucDocument) NumPage() int {
	return d.r.NumPage()
}

func (d *ledongthucDocument) PageText(i int) (text string, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, ok, err = "", false, fmt.Errorf("malformed page: %v", rec)
		}
	}()

	page := d.r.Page(i)
	if page.V.IsNull() {
		return "", false, nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (d *ledongthucDocument) Title() (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()
	return d.r.Trailer().Key("Info").Key("Title").Text()
}
