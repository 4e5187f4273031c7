package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kioku/internal/models"
)

func testStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDocumentCRUD(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:          "doc:a",
		Text:        "some content",
		ContentHash: "hash-a",
		Metadata:    map[string]string{"path": "/notes/a.md"},
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, "doc:a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "some content" || got.ContentHash != "hash-a" {
		t.Errorf("got %+v", got)
	}
	if got.Metadata["path"] != "/notes/a.md" {
		t.Errorf("metadata = %v", got.Metadata)
	}

	ids, err := s.ListDocumentIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "doc:a" {
		t.Errorf("ids = %v", ids)
	}

	if err := s.DeleteDocument(ctx, "doc:a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetDocument(ctx, "doc:a"); err == nil {
		t.Error("deleted document still readable")
	}
	// Deleting a missing document is fine.
	if err := s.DeleteDocument(ctx, "doc:missing"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestChunkCRUD(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, &models.Document{ID: "doc:a", Text: "t", ContentHash: "h"}); err != nil {
		t.Fatal(err)
	}
	chunks := []*models.Chunk{
		{ID: "c2", DocumentID: "doc:a", Text: "second", Start: 10, End: 20},
		{ID: "c1", DocumentID: "doc:a", Text: "first", Start: 0, End: 10},
	}
	if err := s.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	ch, err := s.GetChunk(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Text != "first" || ch.Start != 0 || ch.End != 10 {
		t.Errorf("chunk = %+v", ch)
	}

	byDoc, err := s.GetChunksByDocumentID(ctx, "doc:a")
	if err != nil {
		t.Fatal(err)
	}
	if len(byDoc) != 2 || byDoc[0].ID != "c1" || byDoc[1].ID != "c2" {
		t.Errorf("chunks not ordered by start offset: %v", byDoc)
	}

	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d", n)
	}

	if err := s.DeleteChunksByDocumentID(ctx, "doc:a"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountChunks(ctx); n != 0 {
		t.Errorf("chunks remain after delete: %d", n)
	}
}

func TestBatchCreateChunks_Empty(t *testing.T) {
	s := testStorage(t)
	if err := s.BatchCreateChunks(context.Background(), nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

func TestCountDocuments(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()
	for _, id := range []string{"doc:a", "doc:b"} {
		if err := s.CreateDocument(ctx, &models.Document{ID: id, Text: "t", ContentHash: "h"}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d", n)
	}
}
