package indexer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/index"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

func testSyncConfig() *config.SyncConfig {
	return &config.SyncConfig{Workers: 2, BatchSize: 2, BatchTimeoutSeconds: 5, MaxRetries: 1}
}

func testChunkConfig() *config.ChunkingConfig {
	return &config.ChunkingConfig{MaxChunkTokens: 8, OverlapTokens: 2, BoundarySlack: 2}
}

func testSynchronizer(t *testing.T, dir string, embedder embedding.Embedder) (*Synchronizer, *index.Manager, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	manager, err := index.Open(filepath.Join(dir, "memory.kix"), embedder)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = manager.Close() })
	s := NewSynchronizer(manager, store, embedder, testChunkConfig(), testSyncConfig())
	return s, manager, store
}

func doc(id, text string) models.Document {
	return models.Document{ID: id, Text: text}
}

func TestSync_AddsNewDocuments(t *testing.T) {
	embedder := embedding.NewMockEmbedder(4)
	s, manager, store := testSynchronizer(t, t.TempDir(), embedder)

	report, err := s.Sync(context.Background(), []models.Document{
		doc("doc:a", "the first document has some words in it"),
		doc("doc:b", "the second document also has words"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Added != 2 || report.Replaced != 0 || report.Removed != 0 || report.Unchanged != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Failed) != 0 {
		t.Errorf("failed = %v", report.Failed)
	}
	if manager.Store().Len() == 0 {
		t.Error("no entries in the index")
	}
	n, err := store.CountDocuments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("stored documents = %d", n)
	}
}

func TestSync_UnchangedSkipped(t *testing.T) {
	embedder := embedding.NewMockEmbedder(4)
	s, _, _ := testSynchronizer(t, t.TempDir(), embedder)
	docs := []models.Document{doc("doc:a", "stable content here")}

	if _, err := s.Sync(context.Background(), docs); err != nil {
		t.Fatal(err)
	}
	report, err := s.Sync(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if report.Unchanged != 1 || report.Added != 0 || report.Replaced != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestSync_ChangedReplacedWholesale(t *testing.T) {
	embedder := embedding.NewMockEmbedder(4)
	s, manager, _ := testSynchronizer(t, t.TempDir(), embedder)

	if _, err := s.Sync(context.Background(), []models.Document{
		doc("doc:a", "original content with plenty of words to produce several chunks of text across the boundary window"),
	}); err != nil {
		t.Fatal(err)
	}
	oldIDs := manager.Store().EntryIDsForDocument("doc:a")

	report, err := s.Sync(context.Background(), []models.Document{doc("doc:a", "rewritten")})
	if err != nil {
		t.Fatal(err)
	}
	if report.Replaced != 1 {
		t.Errorf("report = %+v", report)
	}
	newIDs := manager.Store().EntryIDsForDocument("doc:a")
	if len(newIDs) != 1 {
		t.Fatalf("entries after replace = %d", len(newIDs))
	}
	for _, old := range oldIDs {
		for _, n := range newIDs {
			if old == n {
				t.Errorf("stale entry %s survived the replace", old)
			}
		}
	}
}

func TestSync_OrphanRemoval(t *testing.T) {
	embedder := embedding.NewMockEmbedder(4)
	s, manager, store := testSynchronizer(t, t.TempDir(), embedder)

	if _, err := s.Sync(context.Background(), []models.Document{
		doc("doc:a", "first document"),
		doc("doc:b", "second document"),
	}); err != nil {
		t.Fatal(err)
	}

	report, err := s.Sync(context.Background(), []models.Document{doc("doc:a", "first document")})
	if err != nil {
		t.Fatal(err)
	}
	if report.Removed != 1 || report.Unchanged != 1 {
		t.Errorf("report = %+v", report)
	}
	if ids := manager.Store().EntryIDsForDocument("doc:b"); len(ids) != 0 {
		t.Errorf("orphan entries remain: %v", ids)
	}
	if _, ok := manager.Store().DocumentHash("doc:b"); ok {
		t.Error("orphan hash remains")
	}
	n, _ := store.CountDocuments(context.Background())
	if n != 1 {
		t.Errorf("stored documents = %d", n)
	}
}

func TestSync_EmptyInputRemovesEverything(t *testing.T) {
	embedder := embedding.NewMockEmbedder(4)
	s, manager, _ := testSynchronizer(t, t.TempDir(), embedder)

	if _, err := s.Sync(context.Background(), []models.Document{doc("doc:a", "content")}); err != nil {
		t.Fatal(err)
	}
	report, err := s.Sync(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Removed != 1 {
		t.Errorf("report = %+v", report)
	}
	if manager.Store().Len() != 0 {
		t.Errorf("entries remain: %d", manager.Store().Len())
	}
}

func TestSync_DeterministicIndexBytes(t *testing.T) {
	docs := []models.Document{
		doc("doc:b", "second document with its own words"),
		doc("doc:a", "first document with a handful of words"),
	}
	var files [][]byte
	for i := 0; i < 2; i++ {
		dir := t.TempDir()
		embedder := embedding.NewMockEmbedder(4)
		s, _, _ := testSynchronizer(t, dir, embedder)
		if _, err := s.Sync(context.Background(), docs); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "memory.kix"))
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, data)
	}
	if !bytes.Equal(files[0], files[1]) {
		t.Error("same corpus produced different index bytes")
	}
}

// failingEmbedder fails for texts containing a marker, otherwise delegates
// to the mock.
type failingEmbedder struct {
	*embedding.MockEmbedder
	marker string
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if bytes.Contains([]byte(text), []byte(f.marker)) {
			return nil, &embedding.ProviderError{Provider: "test", Err: errors.New("provider down")}
		}
	}
	return f.MockEmbedder.EmbedBatch(ctx, texts)
}

func TestSync_FailedDocumentDoesNotAbort(t *testing.T) {
	embedder := &failingEmbedder{MockEmbedder: embedding.NewMockEmbedder(4), marker: "POISON"}
	s, manager, _ := testSynchronizer(t, t.TempDir(), embedder)

	report, err := s.Sync(context.Background(), []models.Document{
		doc("doc:a", "healthy document"),
		doc("doc:b", "POISON document"),
		doc("doc:c", "another healthy document"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Added != 2 {
		t.Errorf("added = %d", report.Added)
	}
	if len(report.Failed) != 1 || report.Failed[0].DocumentID != "doc:b" {
		t.Errorf("failed = %v", report.Failed)
	}
	if ids := manager.Store().EntryIDsForDocument("doc:b"); len(ids) != 0 {
		t.Errorf("failed document left entries: %v", ids)
	}
	if _, ok := manager.Store().DocumentHash("doc:b"); ok {
		t.Error("failed document recorded a hash")
	}
}

func TestSync_FailedDocumentRetriedNextRun(t *testing.T) {
	embedder := &failingEmbedder{MockEmbedder: embedding.NewMockEmbedder(4), marker: "POISON"}
	s, _, _ := testSynchronizer(t, t.TempDir(), embedder)

	docs := []models.Document{doc("doc:b", "POISON document")}
	if _, err := s.Sync(context.Background(), docs); err != nil {
		t.Fatal(err)
	}
	// Same hash, but since it never committed it must be attempted again.
	report, err := s.Sync(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed) != 1 {
		t.Errorf("second run should attempt and fail again: %+v", report)
	}
}

func TestSync_DuplicateDocumentID(t *testing.T) {
	embedder := embedding.NewMockEmbedder(4)
	s, _, _ := testSynchronizer(t, t.TempDir(), embedder)
	_, err := s.Sync(context.Background(), []models.Document{
		doc("doc:a", "one"),
		doc("doc:a", "two"),
	})
	if err == nil {
		t.Error("duplicate document id accepted")
	}
}

func TestSync_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	embedder := embedding.NewMockEmbedder(4)
	s, manager, _ := testSynchronizer(t, dir, embedder)
	if _, err := s.Sync(context.Background(), []models.Document{doc("doc:a", "durable content")}); err != nil {
		t.Fatal(err)
	}
	wantLen := manager.Store().Len()
	if err := manager.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := index.Open(filepath.Join(dir, "memory.kix"), embedder)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Store().Len() != wantLen {
		t.Errorf("reopened Len=%d, want %d", reopened.Store().Len(), wantLen)
	}
	if _, ok := reopened.Store().DocumentHash("doc:a"); !ok {
		t.Error("hash not persisted")
	}
}

// lazyDimEmbedder reports dimension 0 until the first successful embed,
// the way a provider that discovers its dimension from the model behaves.
type lazyDimEmbedder struct {
	*embedding.MockEmbedder
	dims int
}

func (l *lazyDimEmbedder) Dimensions() int { return l.dims }

func (l *lazyDimEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := l.MockEmbedder.Embed(ctx, text)
	if err == nil {
		l.dims = len(v)
	}
	return v, err
}

func (l *lazyDimEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := l.MockEmbedder.EmbedBatch(ctx, texts)
	if err == nil && len(vecs) > 0 {
		l.dims = len(vecs[0])
	}
	return vecs, err
}

func TestSync_EmptyDocumentFirstOnFreshIndex(t *testing.T) {
	embedder := &lazyDimEmbedder{MockEmbedder: embedding.NewMockEmbedder(4)}
	s, manager, _ := testSynchronizer(t, t.TempDir(), embedder)
	docs := []models.Document{
		doc("doc:a", "   "),
		doc("doc:b", "real words that actually get indexed"),
	}

	// doc:a sorts first and embeds nothing; it must not fix the index
	// dimension before doc:b's real vectors arrive.
	report, err := s.Sync(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if report.Added != 2 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v", report)
	}
	st := manager.Store()
	if st == nil {
		t.Fatal("no store after syncing a real document")
	}
	if st.Dimension() != 4 {
		t.Errorf("dimension = %d, want 4", st.Dimension())
	}
	if n := len(st.EntryIDsForDocument("doc:b")); n == 0 {
		t.Error("real document has no entries")
	}
	if n := len(st.EntryIDsForDocument("doc:a")); n != 0 {
		t.Errorf("empty document has %d entries", n)
	}

	// The empty document's hash could not be recorded while the dimension
	// was unknown; the second run records it against the now-fixed store.
	report, err = s.Sync(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if report.Added != 1 || report.Unchanged != 1 {
		t.Fatalf("second run report = %+v", report)
	}

	report, err = s.Sync(context.Background(), docs)
	if err != nil {
		t.Fatal(err)
	}
	if report.Unchanged != 2 {
		t.Fatalf("third run report = %+v", report)
	}
}
