package docx

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/reaia/docgraph/pkg/loader"
)

// Parser extracts the text content of Word (.docx) files.
type Parser struct{}

// NewParser creates a DOCX parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the docx at path and returns a single RawDocument with the
// document text.
func (p *Parser) Parse(ctx context.Context, path string) ([]loader.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx: %w", err)
	}

	text, err := parseDocx(content)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no extractable text in %s", path)
	}

	return []loader.RawDocument{{
		Text:     text,
		Metadata: map[string]string{},
	}}, nil
}
