// Package docx extracts paragraph text from Office Open XML word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the registered type for .docx files.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads word/document.xml and emits one line per paragraph,
// including paragraphs nested in tables.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: open archive: %w", domain.ErrExtractionFailed, err)
	}

	part, err := readPart(reader, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %w", domain.ErrExtractionFailed, err)
	}

	content, err := parseDocumentXML(part)
	if err != nil {
		return nil, fmt.Errorf("%w: docx: parse %s: %w", domain.ErrExtractionFailed, documentPart, err)
	}

	return &driven.NormaliseResult{
		Content: content,
		Title:   extractTitle(reader, raw.URI),
	}, nil
}

var errMissingPart = errors.New("missing part")

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", errMissingPart, name)
}

// parseDocumentXML walks the WordprocessingML token stream. Text runs (t)
// are concatenated, tab and br become whitespace, and each closing p ends
// a line.
func parseDocumentXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		out  strings.Builder
		line strings.Builder
		inT  bool
	)
	flush := func() {
		if s := strings.TrimRight(line.String(), " \t"); s != "" {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(s)
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inT = true
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inT = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inT {
				line.Write(el)
			}
		}
	}
	flush()

	return strings.TrimSpace(out.String()), nil
}

type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads dc:title from docProps/core.xml, falling back to the filename.
func extractTitle(reader *zip.Reader, uri string) string {
	if data, err := readPart(reader, corePart); err == nil {
		var core coreXML
		if err := xml.Unmarshal(data, &core); err == nil && strings.TrimSpace(core.Title) != "" {
			return strings.TrimSpace(core.Title)
		}
	}

	if uri == "" {
		return ""
	}
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
