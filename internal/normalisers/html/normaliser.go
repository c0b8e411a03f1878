package html

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the visible text and the <title>.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrExtractionFailed, err)
	}

	// The title lives in <head>, which visibleText removes.
	title := extractHTMLTitle(doc, raw.URI)
	return &driven.NormaliseResult{
		Content: visibleText(doc),
		Title:   title,
	}, nil
}

// droppedElements never contribute visible text.
const droppedElements = "head, script, style, noscript, svg, template"

// blockElements start and end a line of output.
var blockElements = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true, "table": true, "section": true,
	"article": true, "header": true, "footer": true, "main": true, "nav": true, "ul": true, "ol": true,
	"dt": true, "dd": true, "figcaption": true,
}

var multiSpaces = regexp.MustCompile(`[ \t\x{00A0}]+`)

// extractHTMLTitle returns the <title> text, or a title derived from the
// filename.
func extractHTMLTitle(doc *goquery.Document, uri string) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
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

// visibleText returns one line per block of text.
func visibleText(doc *goquery.Document) string {
	doc.Find(droppedElements).Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}

	lines := strings.Split(multiSpaces.ReplaceAllString(b.String(), " "), "\n")
	result := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "br", "hr":
			b.WriteByte('\n')
			return
		case "td", "th":
			defer b.WriteByte(' ')
		}
		if blockElements[n.Data] {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	case html.DocumentNode:
	default:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}
