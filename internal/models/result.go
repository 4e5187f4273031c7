package models

import "time"

// QueryResult is a single ranked hit from the query engine, enriched with the
// chunk's source location so callers can resolve back to the original text.
// Distance is the raw metric value (squared Euclidean by default): lower is
// more similar, and values are not calibrated similarity scores.
type QueryResult struct {
	ChunkID    string            `json:"chunk_id"`
	DocumentID string            `json:"document_id"`
	Distance   float64           `json:"distance"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Text       string            `json:"text,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// QueryResponse is the response for a query request.
type QueryResponse struct {
	Results   []QueryResult `json:"results"`
	Query     string        `json:"query"`
	QueryTime time.Duration `json:"query_time"`
}
