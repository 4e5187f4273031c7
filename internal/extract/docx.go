package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxBodyPath is where OOXML word processors store the document body.
const docxBodyPath = "word/document.xml"

// textNode matches <w:t> elements regardless of attributes, so runs with
// xml:space="preserve" or revision markers still yield their text.
var textNode = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// fromDOCX extracts text from .docx bytes. A DOCX file is a zip archive
// whose body lives in word/document.xml; we pull every <w:t> text node and
// join them with spaces, which keeps content searchable without parsing the
// run and paragraph structure.
func fromDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	body, err := readArchiveFile(zr, docxBodyPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	parts := textNode.FindAllSubmatch(body, -1)
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.Write(bytes.TrimSpace(p[1]))
	}
	return strings.TrimSpace(b.String()), nil
}

func readArchiveFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}
