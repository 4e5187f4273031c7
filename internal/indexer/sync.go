package indexer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/docid"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/index"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

// Synchronizer reconciles the index against the current document set by
// content hash: changed documents are replaced wholesale (remove then add,
// never patched), unchanged ones cost nothing, and documents absent from the
// input are removed as orphans.
type Synchronizer struct {
	manager  *index.Manager
	storage  storage.Storage
	embedder embedding.Embedder
	chunker  *Chunker

	workers      int
	batchSize    int
	batchTimeout time.Duration
	maxRetries   int

	logger *zap.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets a logger for debug output (documents replaced, orphans
// removed, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// NewSynchronizer creates a synchronizer with the given dependencies.
func NewSynchronizer(
	manager *index.Manager,
	store storage.Storage,
	embedder embedding.Embedder,
	chunkCfg *config.ChunkingConfig,
	syncCfg *config.SyncConfig,
	opts ...Option,
) *Synchronizer {
	s := &Synchronizer{
		manager:      manager,
		storage:      store,
		embedder:     embedder,
		chunker:      NewChunker(chunkCfg.MaxChunkTokens, chunkCfg.OverlapTokens, chunkCfg.BoundarySlack),
		workers:      syncCfg.Workers,
		batchSize:    syncCfg.BatchSize,
		batchTimeout: time.Duration(syncCfg.BatchTimeoutSeconds) * time.Second,
		maxRetries:   syncCfg.MaxRetries,
	}
	if s.workers <= 0 {
		s.workers = 4
	}
	if s.batchSize <= 0 {
		s.batchSize = 32
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync reconciles the index against docs, which is the complete current
// document set. Documents are processed in ascending ID order, and each
// document's remove+add+save is one committed step: a failure on document N
// leaves documents 1..N-1 fully committed and document N untouched (stale
// but consistent). Per-document failures land in the report; only
// configuration errors abort the whole call.
func (s *Synchronizer) Sync(ctx context.Context, docs []models.Document) (*models.SyncReport, error) {
	ordered := make([]models.Document, len(docs))
	copy(ordered, docs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	current := make(map[string]bool, len(ordered))
	report := &models.SyncReport{}

	for _, doc := range ordered {
		if doc.ID == "" {
			return nil, fmt.Errorf("document with empty id")
		}
		if current[doc.ID] {
			return nil, fmt.Errorf("duplicate document id %s", doc.ID)
		}
		current[doc.ID] = true

		hash := doc.ContentHash
		if hash == "" {
			hash = docid.ContentHash(doc.Text)
		}

		var prev string
		var known bool
		if st := s.manager.Store(); st != nil {
			prev, known = st.DocumentHash(doc.ID)
		}
		if known && prev == hash {
			report.Unchanged++
			continue
		}

		if err := s.replaceDocument(ctx, doc, hash); err != nil {
			if isConfigurationError(err) {
				return nil, err
			}
			if s.logger != nil {
				s.logger.Warn("document sync failed", zap.String("doc_id", doc.ID), zap.Error(err))
			}
			report.Failed = append(report.Failed, models.DocumentFailure{
				DocumentID: doc.ID,
				Error:      err.Error(),
			})
			continue
		}
		if known {
			report.Replaced++
		} else {
			report.Added++
		}
	}

	removed, err := s.removeOrphans(ctx, current)
	if err != nil {
		return nil, err
	}
	report.Removed = removed

	if s.logger != nil {
		s.logger.Debug("sync complete",
			zap.Int("added", report.Added),
			zap.Int("replaced", report.Replaced),
			zap.Int("removed", report.Removed),
			zap.Int("unchanged", report.Unchanged),
			zap.Int("failed", len(report.Failed)),
		)
	}
	return report, nil
}

// replaceDocument re-chunks and re-embeds doc, then commits remove+add+hash
// as one persisted step. Nothing is mutated until embedding has fully
// succeeded, so a provider failure leaves the previous state committed.
func (s *Synchronizer) replaceDocument(ctx context.Context, doc models.Document, hash string) error {
	chunks := s.chunker.Chunk(doc.ID, doc.Text)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vecs, err := s.embedBounded(ctx, texts)
	if err != nil {
		return err
	}

	dim := s.embedder.Dimensions()
	for i, v := range vecs {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("chunk %s: got %d, expected %d: %w", chunks[i].ID, len(v), dim, vector.ErrDimensionMismatch)
		}
	}
	if dim == 0 {
		// Nothing embeddable and the provider has not reported a dimension.
		// An existing index supplies it; a fresh one stays dimensionless
		// until a real vector arrives.
		if st := s.manager.Store(); st != nil {
			dim = st.Dimension()
		}
	}

	entries := make([]vector.Entry, len(chunks))
	for i, ch := range chunks {
		entries[i] = vector.Entry{
			ID:     ch.ID,
			Vector: vecs[i],
			Meta: vector.Metadata{
				DocumentID: ch.DocumentID,
				Start:      ch.Start,
				End:        ch.End,
				Extra:      doc.Metadata,
			},
		}
	}

	// Content store first, index commit last. The hash in the index side
	// table is the completion marker: any failure before it is recorded
	// leaves the hash absent, so the document is retried next run and both
	// stores converge. The reverse order would record completion with the
	// content store stale, and nothing would ever repair it.
	if err := s.storage.DeleteChunksByDocumentID(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	if err := s.storage.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete old document: %w", err)
	}
	stored := doc
	stored.ContentHash = hash
	if err := s.storage.CreateDocument(ctx, &stored); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	if err := s.storage.BatchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	if dim == 0 {
		// Empty document on an index whose dimension is still unknown:
		// there is no store to record the hash in yet, so the document is
		// revisited on the next sync at zero embedding cost. Committing a
		// made-up dimension here would poison the index for every
		// real document that follows.
		return nil
	}

	return s.manager.Commit(dim, func(st *vector.Store) error {
		st.Remove(st.EntryIDsForDocument(doc.ID))
		if err := st.Add(entries); err != nil {
			return err
		}
		st.SetDocumentHash(doc.ID, hash)
		return nil
	})
}

// removeOrphans drops every document recorded in the side table but absent
// from the current set, in one committed step. Returns the orphan count.
func (s *Synchronizer) removeOrphans(ctx context.Context, current map[string]bool) (int, error) {
	st := s.manager.Store()
	if st == nil {
		return 0, nil
	}
	var orphans []string
	for _, docID := range st.Documents() {
		if !current[docID] {
			orphans = append(orphans, docID)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	err := s.manager.CommitRemoval(func(st *vector.Store) error {
		for _, docID := range orphans {
			st.Remove(st.EntryIDsForDocument(docID))
			st.DeleteDocumentHash(docID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, docID := range orphans {
		if err := s.storage.DeleteChunksByDocumentID(ctx, docID); err != nil {
			return 0, fmt.Errorf("delete orphan chunks: %w", err)
		}
		if err := s.storage.DeleteDocument(ctx, docID); err != nil {
			return 0, fmt.Errorf("delete orphan document: %w", err)
		}
		if s.logger != nil {
			s.logger.Debug("orphan removed", zap.String("doc_id", docID))
		}
	}
	return len(orphans), nil
}

// embedBounded embeds texts in batches through a bounded worker pool.
// Each batch attempt carries a timeout and is retried with exponential
// backoff while the provider reports transient failures; retry exhaustion
// fails the document.
func (s *Synchronizer) embedBounded(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type batch struct {
		offset int
		texts  []string
	}
	var batches []batch
	for off := 0; off < len(texts); off += s.batchSize {
		end := off + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{offset: off, texts: texts[off:end]})
	}

	vecs := make([][]float32, len(texts))
	jobs := make(chan batch)
	errChan := make(chan error, s.workers)
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				out, err := s.embedBatch(workerCtx, b.texts)
				if err != nil {
					errChan <- err
					cancel()
					return
				}
				copy(vecs[b.offset:], out)
			}
		}()
	}

	for _, b := range batches {
		select {
		case jobs <- b:
		case <-workerCtx.Done():
		}
		if workerCtx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vecs, nil
}

func (s *Synchronizer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	op := func() error {
		attemptCtx := ctx
		if s.batchTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, s.batchTimeout)
			defer cancel()
		}
		vecs, err := s.embedder.EmbedBatch(attemptCtx, texts)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = vecs
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return out, nil
}

// isRetryable reports whether err is a transient provider failure. Timeouts
// count as provider failures; configuration errors never retry.
func isRetryable(err error) bool {
	var perr *embedding.ProviderError
	if errors.As(err, &perr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func isConfigurationError(err error) bool {
	return errors.Is(err, vector.ErrDimensionMismatch) ||
		errors.Is(err, vector.ErrProviderMismatch) ||
		errors.Is(err, vector.ErrUnsupportedVersion)
}
