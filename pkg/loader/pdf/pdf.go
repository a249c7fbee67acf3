package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/reaia/docgraph/pkg/loader"
)

// Parser extracts text from PDF files, one RawDocument per page so that
// page provenance survives chunking and storage.
type Parser struct{}

// NewParser creates a PDF parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse opens the PDF at path and returns one RawDocument per non-empty
// page, carrying page and total_pages metadata.
func (p *Parser) Parse(ctx context.Context, path string) ([]loader.RawDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	documents := make([]loader.RawDocument, 0, totalPages)

	for i := 1; i <= totalPages; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail to extract are skipped, not fatal
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		documents = append(documents, loader.RawDocument{
			Text: text,
			Metadata: map[string]string{
				"page":        strconv.Itoa(i),
				"total_pages": strconv.Itoa(totalPages),
			},
		})
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", path)
	}

	return documents, nil
}
