package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kioku/internal/models"
)

func sampleResponse() *models.QueryResponse {
	return &models.QueryResponse{
		Query: "test",
		Results: []models.QueryResult{
			{
				ChunkID:    "c1",
				DocumentID: "doc:a",
				Distance:   0.25,
				Start:      0,
				End:        12,
				Text:       "some matched text",
				Metadata:   map[string]string{"path": "/notes/a.md"},
			},
		},
		QueryTime: 5 * time.Millisecond,
	}
}

func TestWriteQueryResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "doc:a") || !strings.Contains(out, "/notes/a.md") {
		t.Errorf("output missing fields:\n%s", out)
	}
}

func TestWriteQueryResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.QueryResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].DocumentID != "doc:a" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteSyncReport_Text(t *testing.T) {
	var buf bytes.Buffer
	report := &models.SyncReport{
		Added: 2, Replaced: 1, Removed: 1, Unchanged: 3,
		Failed: []models.DocumentFailure{{DocumentID: "doc:x", Error: "provider down"}},
	}
	if err := WriteSyncReport(&buf, report, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "2 added") || !strings.Contains(out, "doc:x") {
		t.Errorf("output:\n%s", out)
	}
}

func TestWriteStats_JSON(t *testing.T) {
	var buf bytes.Buffer
	stats := &models.Stats{EntryCount: 10, Dimension: 384, IndexSizeBytes: 2048}
	if err := WriteStats(&buf, stats, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Stats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.EntryCount != 10 || decoded.Dimension != 384 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("hello", 0); got != "hello" {
		t.Errorf("maxLen 0: got %q", got)
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("a b c", 5); got != "a b c" {
		t.Errorf("got %q", got)
	}
	if got := TruncateWords("a b c d", 2); got != "a b..." {
		t.Errorf("got %q", got)
	}
}
