package normalisers

import (
	"github.com/custodia-labs/docuquery/internal/normalisers/docx"
	"github.com/custodia-labs/docuquery/internal/normalisers/html"
	"github.com/custodia-labs/docuquery/internal/normalisers/markdown"
	"github.com/custodia-labs/docuquery/internal/normalisers/pdf"
	"github.com/custodia-labs/docuquery/internal/normalisers/plaintext"
)

// RegisterDefaults registers the built-in normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
}

// Default returns a registry with the built-in normalisers.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
