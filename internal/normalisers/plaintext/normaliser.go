// Package plaintext normalises text-like files by decoding them as UTF-8.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const utf8BOM = "\uFEFF"

// Normaliser handles plain text and source files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/x-go",
		"text/x-python",
		"text/x-rust",
		"text/x-java",
		"text/x-c",
		"text/x-c++",
		"text/x-ruby",
		"text/x-shellscript",
		"text/x-sql",
		"text/csv",
		"text/yaml",
		"text/toml",
		"text/javascript",
		"text/typescript",
		"text/css",
		"application/json",
		"application/xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise decodes the content as UTF-8. Byte sequences that are not
// valid UTF-8 are replaced with U+FFFD unless the content looks binary.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	if looksBinary(raw.Content) {
		return nil, fmt.Errorf("%w: %s looks like a binary file", domain.ErrExtractionFailed, raw.Filename)
	}

	content := string(raw.Content)
	content = strings.TrimPrefix(content, utf8BOM)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "\uFFFD")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	return &driven.NormaliseResult{
		Content: content,
		Title:   titleFromURI(raw.URI),
	}, nil
}

// looksBinary reports whether the first 512 bytes contain a NUL byte.
func looksBinary(b []byte) bool {
	if len(b) > 512 {
		b = b[:512]
	}
	for _, c := range b {
		if c == 0 {
			return true
		}
	}
	return false
}

// titleFromURI turns "/docs/my_notes-v2.txt" into "my notes v2".
func titleFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
