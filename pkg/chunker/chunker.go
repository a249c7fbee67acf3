package chunker

import (
	"fmt"
	"maps"

	"github.com/reaia/docgraph/pkg/loader"
)

// Default chunk geometry, in tokens.
const (
	DefaultChunkSize = 1536
	DefaultOverlap   = 250
)

// ConfigError reports invalid chunk geometry.
type ConfigError struct {
	ChunkSize int
	Overlap   int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunk configuration: overlap %d must be smaller than chunk size %d (chunk size must be positive)",
		e.Overlap, e.ChunkSize)
}

// Chunk is a token-bounded slice of a document's text. Consecutive chunks
// of the same document share an overlap window of a fixed token count.
type Chunk struct {
	Text     string
	Index    int
	Metadata map[string]string
}

// Chunker splits RawDocuments into overlapping token windows.
//
// A Chunker should be created using NewChunker.
type Chunker struct {
	tokenizer Tokenizer
	chunkSize int
	overlap   int
}

// NewChunkerParams defines the configuration for creating a new Chunker.
// ChunkSize and Overlap are token counts; zero values fall back to the
// package defaults.
type NewChunkerParams struct {
	Tokenizer Tokenizer
	ChunkSize int
	Overlap   int
}

// NewChunker creates a Chunker. It returns a ConfigError when the overlap
// is not smaller than the chunk size.
func NewChunker(params NewChunkerParams) (*Chunker, error) {
	chunkSize := params.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	overlap := params.Overlap
	if overlap == 0 && params.ChunkSize == 0 {
		overlap = DefaultOverlap
	}

	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, &ConfigError{ChunkSize: chunkSize, Overlap: overlap}
	}

	return &Chunker{
		tokenizer: params.Tokenizer,
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Chunk splits each document into windows of chunkSize tokens, each
// window after the first starting chunkSize-overlap tokens into the
// previous one. Every chunk inherits its parent's metadata plus a 0-based
// per-document index.
func (c *Chunker) Chunk(documents []loader.RawDocument) []Chunk {
	var chunks []Chunk

	stride := c.chunkSize - c.overlap
	for _, doc := range documents {
		tokens := c.tokenizer.Encode(doc.Text)
		if len(tokens) == 0 {
			continue
		}

		index := 0
		for start := 0; start < len(tokens); start += stride {
			end := min(start+c.chunkSize, len(tokens))

			metadata := make(map[string]string, len(doc.Metadata))
			maps.Copy(metadata, doc.Metadata)

			chunks = append(chunks, Chunk{
				Text:     c.tokenizer.Decode(tokens[start:end]),
				Index:    index,
				Metadata: metadata,
			})
			index++

			if end == len(tokens) {
				break
			}
		}
	}

	return chunks
}
