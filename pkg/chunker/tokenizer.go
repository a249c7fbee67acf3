package chunker

import "github.com/pkoukk/tiktoken-go"

// Tokenizer converts text to and from a deterministic token sequence.
// Chunk boundaries are computed in token space, never characters.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer returns a Tokenizer backed by the named tiktoken
// encoding, e.g. "cl100k_base" or "o200k_base".
func NewTiktokenTokenizer(encoding string) (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
