package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeParser struct {
	docs []RawDocument
	err  error
}

func (f *fakeParser) Parse(ctx context.Context, path string) ([]RawDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]RawDocument, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func writeFile(t *testing.T, dir string, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.pdf")
	writeFile(t, dir, "notes.docx")
	writeFile(t, dir, "readme.txt")

	l := NewDirectoryLoader(NewDirectoryLoaderParams{
		Parsers: map[string]Parser{
			".pdf":  &fakeParser{docs: []RawDocument{{Text: "pdf page 1"}, {Text: "pdf page 2"}}},
			".docx": &fakeParser{docs: []RawDocument{{Text: "docx body"}}},
		},
	})

	docs, err := l.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents (.txt skipped), got %d", len(docs))
	}
	for _, d := range docs {
		if d.Metadata["source"] == "" {
			t.Fatalf("expected source metadata on %+v", d)
		}
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	l := NewDirectoryLoader(NewDirectoryLoaderParams{})
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestLoadPolicies(t *testing.T) {
	t.Run("skip and warn continues past bad files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.pdf")
		writeFile(t, dir, "good.docx")

		l := NewDirectoryLoader(NewDirectoryLoaderParams{
			Parsers: map[string]Parser{
				".pdf":  &fakeParser{err: errors.New("corrupt")},
				".docx": &fakeParser{docs: []RawDocument{{Text: "ok"}}},
			},
			Policy: SkipAndWarn,
		})

		docs, err := l.Load(context.Background(), dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected 1 document, got %d", len(docs))
		}
	})

	t.Run("fail fast aborts the load", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bad.pdf")

		l := NewDirectoryLoader(NewDirectoryLoaderParams{
			Parsers: map[string]Parser{
				".pdf": &fakeParser{err: errors.New("corrupt")},
			},
			Policy: FailFast,
		})

		if _, err := l.Load(context.Background(), dir); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestLoadExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "REPORT.PDF")

	l := NewDirectoryLoader(NewDirectoryLoaderParams{
		Parsers: map[string]Parser{
			".pdf": &fakeParser{docs: []RawDocument{{Text: "page"}}},
		},
	})

	docs, err := l.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
}
