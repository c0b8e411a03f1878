package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.ElementsMatch(t, []string{"text/markdown", "text/x-markdown"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/readme.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Getting Started\n\nInstall with **brew**.\n"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Getting Started", result.Title)
	assert.Equal(t, "Getting Started\n\nInstall with brew.", result.Content)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_TitleFallback(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		content string
		want    string
	}{
		{"h1 wins", "/a/b.md", "intro\n# Real Title\n", "Real Title"},
		{"h2 is not a title", "/a/release_notes.md", "## Changes\n", "release notes"},
		{"dashes", "/a/how-to-guide.md", "text", "how to guide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: tt.uri, Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Title)
		})
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"links keep text", "see [the docs](https://x.io)", "see the docs"},
		{"images keep alt", "![diagram](d.png)", "diagram"},
		{"inline code keeps text", "run `make test` now", "run make test now"},
		{"code fences dropped, body kept", "```go\nfmt.Println(1)\n```", "fmt.Println(1)"},
		{"headings", "## Section\nbody", "Section\nbody"},
		{"bold and italic", "**bold** and *it*", "bold and it"},
		{"snake_case survives", "call do_the_thing()", "call do_the_thing()"},
		{"lists", "- one\n- two\n1. three", "one\ntwo\nthree"},
		{"blockquote", "> quoted", "quoted"},
		{"rule", "a\n\n---\n\nb", "a\n\nb"},
		{"front matter", "---\ntitle: x\n---\nbody", "body"},
		{"inline html", "a <br/> b", "a  b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.input))
		})
	}
}
