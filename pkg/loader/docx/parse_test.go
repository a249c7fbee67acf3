package docx

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseDocx(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "paragraphs",
			xml: `<document><body>` +
				`<p><r><t>First paragraph.</t></r></p>` +
				`<p><r><t>Second paragraph.</t></r></p>` +
				`</body></document>`,
			want: "First paragraph.\nSecond paragraph.\n",
		},
		{
			name: "tabs and breaks",
			xml: `<document><body>` +
				`<p><r><t>a</t><tab/><t>b</t><br/><t>c</t></r></p>` +
				`</body></document>`,
			want: "a\tb\nc\n",
		},
		{
			name: "table cells tab separated",
			xml: `<document><body><tbl>` +
				`<tr><tc><p><r><t>h1</t></r></p></tc><tc><p><r><t>h2</t></r></p></tc></tr>` +
				`</tbl></body></document>`,
			want: "h1\n\th2\n",
		},
		{
			name: "deleted runs dropped",
			xml: `<document><body>` +
				`<p><r><t>kept</t></r><del><r><t>removed</t></r></del></p>` +
				`</body></document>`,
			want: "kept\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDocx(buildDocx(t, tt.xml))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("unexpected text: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDocxMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/other.xml")
	_, _ = w.Write([]byte("<x/>"))
	_ = zw.Close()

	_, err := parseDocx(buf.Bytes())
	if err == nil || !strings.Contains(err.Error(), "document.xml") {
		t.Fatalf("expected document.xml error, got %v", err)
	}
}

func TestParseDocxNotAZip(t *testing.T) {
	if _, err := parseDocx([]byte("plain text")); err == nil {
		t.Fatal("expected an error")
	}
}
