package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reaia/docgraph/pkg/logger"
)

// RawDocument is one extracted text record plus its source metadata.
// A single file may produce several RawDocuments (one per PDF page).
type RawDocument struct {
	Text     string
	Metadata map[string]string
}

// Parser extracts RawDocuments from a single file. Implementations are
// registered per file extension on a DirectoryLoader.
type Parser interface {
	Parse(ctx context.Context, path string) ([]RawDocument, error)
}

// Policy controls how the loader treats files that fail to parse.
type Policy int

const (
	// SkipAndWarn logs the failing file and continues with the rest.
	SkipAndWarn Policy = iota
	// FailFast aborts the whole load on the first failing file.
	FailFast
)

// DirectoryLoader scans a directory (non-recursive) and dispatches each
// file to the parser registered for its extension. Files with no
// registered parser are skipped silently.
type DirectoryLoader struct {
	parsers map[string]Parser
	policy  Policy
}

// NewDirectoryLoaderParams defines the configuration for creating a new
// DirectoryLoader. Parser map keys are lowercase extensions including the
// dot, e.g. ".pdf".
type NewDirectoryLoaderParams struct {
	Parsers map[string]Parser
	Policy  Policy
}

// NewDirectoryLoader creates a loader with the given parser registry.
func NewDirectoryLoader(params NewDirectoryLoaderParams) *DirectoryLoader {
	parsers := make(map[string]Parser, len(params.Parsers))
	for ext, p := range params.Parsers {
		parsers[strings.ToLower(ext)] = p
	}
	return &DirectoryLoader{
		parsers: parsers,
		policy:  params.Policy,
	}
}

// Register adds or replaces the parser for an extension.
func (l *DirectoryLoader) Register(ext string, p Parser) {
	l.parsers[strings.ToLower(ext)] = p
}

// Load reads every supported file in dir and returns the extracted
// RawDocuments in directory order. A missing or unreadable directory is
// an error; unreadable individual files follow the configured Policy.
func (l *DirectoryLoader) Load(ctx context.Context, dir string) ([]RawDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", dir, err)
	}

	var documents []RawDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		parser, ok := l.parsers[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}

		path := filepath.Join(dir, name)
		docs, err := parser.Parse(ctx, path)
		if err != nil {
			if l.policy == FailFast {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			logger.Warn("[Loader] Skipping unreadable file", "file", path, "err", err)
			continue
		}

		for i := range docs {
			if docs[i].Metadata == nil {
				docs[i].Metadata = map[string]string{}
			}
			docs[i].Metadata["source"] = path
		}
		documents = append(documents, docs...)
	}

	logger.Info("[Loader] Documents loaded", "dir", dir, "count", len(documents))
	return documents, nil
}
