package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const docXMLMax = 50 << 20

// parseDocx pulls word/document.xml out of the docx container and walks
// its XML tokens, keeping paragraph breaks, tabs, line breaks and table
// cell boundaries. Deleted (revision-tracked) runs are dropped.
func parseDocx(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("document.xml not found in docx")
	}
	if docFile.UncompressedSize64 > docXMLMax {
		return "", fmt.Errorf("document.xml too large: %d bytes", docFile.UncompressedSize64)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, int64(docXMLMax)))

	var sb strings.Builder
	inText := false
	delDepth := 0
	cellIdx := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "del":
				delDepth++
			case "t":
				inText = true
			case "tab":
				if delDepth == 0 {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				if delDepth == 0 {
					sb.WriteByte('\n')
				}
			case "tr":
				cellIdx = 0
			case "tc":
				if delDepth == 0 {
					if cellIdx > 0 {
						sb.WriteByte('\t')
					}
					cellIdx++
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "del":
				if delDepth > 0 {
					delDepth--
				}
			case "t":
				inText = false
			case "p", "tr":
				if delDepth == 0 && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText && delDepth == 0 {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
