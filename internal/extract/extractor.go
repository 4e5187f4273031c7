// Package extract converts document files into plain text for chunking.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extractFunc converts raw file bytes into plain text.
type extractFunc func([]byte) (string, error)

// byExtension maps a lowercase file extension (with leading dot) to its
// extractor. Extensions not listed here fall back to plain text.
var byExtension = map[string]extractFunc{
	".pdf":  fromPDF,
	".docx": fromDOCX,
	".xlsx": fromExcel,
	".txt":  fromPlain,
	".md":   fromPlain,
	".rst":  fromPlain,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// File reads the file at path and returns its text content. The format is
// chosen by extension; unknown extensions are treated as plain text.
func (e *Extractor) File(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.Bytes(content, filepath.Ext(path))
}

// Bytes extracts text from content. ext includes the leading dot (".pdf")
// and is matched case-insensitively.
func (e *Extractor) Bytes(content []byte, ext string) (string, error) {
	fn, ok := byExtension[strings.ToLower(ext)]
	if !ok {
		fn = fromPlain
	}
	return fn(content)
}
