package chunker

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.ChunkSize())
		}
		if p.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ChunkSize() != 500 || p.Overlap() != 0 {
			t.Errorf("expected 500/0, got %d/%d", p.ChunkSize(), p.Overlap())
		}
	})

	invalid := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
		{"zero chunk size", 0, 0},
		{"negative overlap", 100, -1},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestSplit_DocumentScenario(t *testing.T) {
	windows, err := Split(strings.Repeat("a", 2500), 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{0, 1000}, {800, 1800}, {1600, 2500}}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(windows))
	}
	for i, w := range windows {
		if w.Start != want[i][0] || w.End != want[i][1] {
			t.Errorf("window %d: expected [%d,%d), got [%d,%d)", i, want[i][0], want[i][1], w.Start, w.End)
		}
		if w.Position != i {
			t.Errorf("window %d: expected position %d, got %d", i, i, w.Position)
		}
	}
	if len(windows[2].Text) != 900 {
		t.Errorf("expected short tail of 900 chars, got %d", len(windows[2].Text))
	}
}

func TestSplit_EmptyText(t *testing.T) {
	windows, err := Split("", 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("expected 0 windows for empty text, got %d", len(windows))
	}
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	_, err := Split("text", 10, 10)
	if !errors.Is(err, domain.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestSplit_SmallText(t *testing.T) {
	windows, err := Split("short", 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 || windows[0].Text != "short" || windows[0].End != 5 {
		t.Errorf("expected a single full window, got %+v", windows)
	}
}

func TestSplit_ExactMultiple(t *testing.T) {
	windows, err := Split(strings.Repeat("a", 100), 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 2 {
		t.Errorf("expected 2 windows, got %d", len(windows))
	}
}

func TestSplit_Coverage(t *testing.T) {
	texts := []string{
		"0123456789ABCDEFGHIJ",
		strings.Repeat("lorem ipsum ", 97),
		"héllo wörld, ünïcode spans must not split runes ✓✓✓",
	}
	configs := [][2]int{{10, 3}, {7, 0}, {64, 63}, {1, 0}, {1000, 200}}

	for _, text := range texts {
		for _, cfg := range configs {
			size, overlap := cfg[0], cfg[1]
			windows, err := Split(text, size, overlap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			runes := []rune(text)
			if windows[0].Start != 0 {
				t.Errorf("first window must start at 0")
			}
			if windows[len(windows)-1].End != len(runes) {
				t.Errorf("last window must end at %d, got %d", len(runes), windows[len(windows)-1].End)
			}
			for i, w := range windows {
				if w.End-w.Start > size {
					t.Errorf("window %d exceeds size %d", i, size)
				}
				if !utf8.ValidString(w.Text) {
					t.Errorf("window %d is not valid UTF-8", i)
				}
				if w.Text != string(runes[w.Start:w.End]) {
					t.Errorf("window %d text does not match its offsets", i)
				}
				if i > 0 {
					prev := windows[i-1]
					if w.Start > prev.End {
						t.Errorf("gap between window %d and %d", i-1, i)
					}
					if prev.End-w.Start > overlap {
						t.Errorf("windows %d and %d overlap by more than %d", i-1, i, overlap)
					}
					if w.Start <= prev.Start {
						t.Errorf("window %d does not advance", i)
					}
				}
			}
		}
	}
}

func TestProcessor_Chunk(t *testing.T) {
	p, err := New(WithChunkSize(10), WithOverlap(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := p.Chunk("doc-1", "0123456789ABCDEFGHIJ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// step 7: [0,10) [7,17) [14,20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Content != "789ABCDEFG" {
		t.Errorf("unexpected second chunk %q", chunks[1].Content)
	}

	seen := make(map[string]bool)
	for i, c := range chunks {
		if c.DocumentID != "doc-1" {
			t.Errorf("expected DocumentID 'doc-1', got '%s'", c.DocumentID)
		}
		if c.Position != i {
			t.Errorf("expected position %d, got %d", i, c.Position)
		}
		if seen[c.ID] {
			t.Errorf("duplicate chunk ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestProcessor_Chunk_Deterministic(t *testing.T) {
	p, _ := New(WithChunkSize(50), WithOverlap(10))
	text := strings.Repeat("deterministic output ", 20)

	first, err := p.Chunk("doc-1", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Chunk("doc-1", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("re-chunking identical input produced different output")
	}

	other, _ := p.Chunk("doc-2", text)
	if other[0].ID == first[0].ID {
		t.Error("chunk IDs must differ across documents")
	}
}
