// Package models defines core data structures for documents, chunks, and sync results.
package models

import "time"

// Document is one logical unit of generated text handed to the synchronizer.
// The engine never mutates a Document; a changed document is detected by its
// content hash and replaced wholesale in the index.
type Document struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Chunk is a bounded substring of a document's text, the unit that gets embedded.
// Chunks are immutable; a changed document produces a wholly new chunk set.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	// Start and End are byte offsets into the original document text.
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Stats reports operational state of an index.
type Stats struct {
	EntryCount     int       `json:"entry_count"`
	Dimension      int       `json:"dimension"`
	IndexSizeBytes int64     `json:"index_size_bytes"`
	LastSync       time.Time `json:"last_sync,omitempty"`
}
