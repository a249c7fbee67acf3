package chunker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/reaia/docgraph/pkg/loader"
)

// wordTokenizer is a deterministic whitespace tokenizer for tests, so the
// chunk arithmetic can be asserted without a BPE corpus.
type wordTokenizer struct {
	words []string
	ids   map[string]int
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: map[string]int{}}
}

func (t *wordTokenizer) Encode(text string) []int {
	var tokens []int
	for _, word := range strings.Fields(text) {
		id, ok := t.ids[word]
		if !ok {
			id = len(t.words)
			t.ids[word] = id
			t.words = append(t.words, word)
		}
		tokens = append(tokens, id)
	}
	return tokens
}

func (t *wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = t.words[id]
	}
	return strings.Join(words, " ")
}

func docOfWords(n int) loader.RawDocument {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return loader.RawDocument{
		Text:     strings.Join(words, " "),
		Metadata: map[string]string{"source": "test.pdf", "page": "3"},
	}
}

func TestChunkOverlapAndReconstruction(t *testing.T) {
	tok := newWordTokenizer()
	c, err := NewChunker(NewChunkerParams{Tokenizer: tok, ChunkSize: 5, Overlap: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := docOfWords(12)
	original := tok.Encode(doc.Text)

	chunks := c.Chunk([]loader.RawDocument{doc})
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}

	// Consecutive chunks share exactly the configured overlap window.
	for i := 1; i < len(chunks); i++ {
		prev := tok.Encode(chunks[i-1].Text)
		cur := tok.Encode(chunks[i].Text)
		if !reflect.DeepEqual(prev[len(prev)-2:], cur[:2]) {
			t.Fatalf("chunks %d/%d do not overlap by 2 tokens: %v vs %v", i-1, i, prev, cur)
		}
	}

	// Concatenating the non-overlapping spans rebuilds the original
	// token sequence.
	var rebuilt []int
	for i, chunk := range chunks {
		tokens := tok.Encode(chunk.Text)
		if i > 0 {
			tokens = tokens[2:]
		}
		rebuilt = append(rebuilt, tokens...)
	}
	if !reflect.DeepEqual(rebuilt, original) {
		t.Fatalf("reconstruction mismatch: got %v, want %v", rebuilt, original)
	}
}

func TestChunkMetadataAndIndex(t *testing.T) {
	tok := newWordTokenizer()
	c, err := NewChunker(NewChunkerParams{Tokenizer: tok, ChunkSize: 4, Overlap: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := c.Chunk([]loader.RawDocument{docOfWords(10), docOfWords(3)})

	lastOfFirst := 0
	for i, chunk := range chunks {
		if chunk.Metadata["source"] != "test.pdf" || chunk.Metadata["page"] != "3" {
			t.Fatalf("chunk %d lost parent metadata: %v", i, chunk.Metadata)
		}
		if chunk.Index == 0 && i > 0 {
			lastOfFirst = i - 1
		}
	}

	// Index restarts at 0 for the second document.
	if chunks[lastOfFirst+1].Index != 0 {
		t.Fatalf("expected index reset on new document, got %d", chunks[lastOfFirst+1].Index)
	}
	for i := 0; i <= lastOfFirst; i++ {
		if chunks[i].Index != i {
			t.Fatalf("expected chunk %d to have index %d, got %d", i, i, chunks[i].Index)
		}
	}

	// Metadata maps must not be shared between chunks.
	chunks[0].Metadata["page"] = "mutated"
	if chunks[1].Metadata["page"] != "3" {
		t.Fatal("chunk metadata maps are shared")
	}
}

func TestChunkShortDocumentSingleChunk(t *testing.T) {
	tok := newWordTokenizer()
	c, err := NewChunker(NewChunkerParams{Tokenizer: tok, ChunkSize: 100, Overlap: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := docOfWords(7)
	chunks := c.Chunk([]loader.RawDocument{doc})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != doc.Text {
		t.Fatalf("expected chunk to carry the whole text, got %q", chunks[0].Text)
	}
}

func TestNewChunkerConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{name: "overlap larger than size", chunkSize: 100, overlap: 150},
		{name: "overlap equals size", chunkSize: 100, overlap: 100},
		{name: "negative size", chunkSize: -5, overlap: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(NewChunkerParams{
				Tokenizer: newWordTokenizer(),
				ChunkSize: tt.chunkSize,
				Overlap:   tt.overlap,
			})
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	c, err := NewChunker(NewChunkerParams{Tokenizer: newWordTokenizer()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.chunkSize != DefaultChunkSize || c.overlap != DefaultOverlap {
		t.Fatalf("unexpected defaults: size=%d overlap=%d", c.chunkSize, c.overlap)
	}
}
