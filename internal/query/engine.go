package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/index"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

// Engine answers semantic queries against a managed index. The query text is
// embedded with the same provider that built the index, matched exhaustively,
// and results are enriched with chunk text from the content store.
type Engine struct {
	manager  *index.Manager
	storage  storage.Storage
	embedder embedding.Embedder
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for query timing output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a query engine over the given index and content store.
func NewEngine(manager *index.Manager, store storage.Storage, embedder embedding.Embedder, opts ...Option) *Engine {
	e := &Engine{
		manager:  manager,
		storage:  store,
		embedder: embedder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query embeds text and returns the k nearest chunks in ascending distance
// order. An empty index yields an empty result set, not an error. k must be
// positive.
func (e *Engine) Query(ctx context.Context, text string, k int) (*models.QueryResponse, error) {
	if k <= 0 {
		return nil, fmt.Errorf("limit %d: %w", k, vector.ErrInvalidLimit)
	}
	start := time.Now()

	resp := &models.QueryResponse{
		Query:   text,
		Results: []models.QueryResult{},
	}

	st := e.manager.Store()
	if st == nil || st.Len() == 0 {
		resp.QueryTime = time.Since(start)
		return resp, nil
	}

	qvec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := st.Search(qvec, k)
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		r := models.QueryResult{
			ChunkID:    m.ID,
			DocumentID: m.Meta.DocumentID,
			Distance:   m.Distance,
			Start:      m.Meta.Start,
			End:        m.Meta.End,
			Metadata:   m.Meta.Extra,
		}
		if e.storage != nil {
			// The content store may lag the index mid-sync; a missing
			// chunk body is not a query failure.
			if ch, err := e.storage.GetChunk(ctx, m.ID); err == nil && ch != nil {
				r.Text = ch.Text
			}
		}
		resp.Results = append(resp.Results, r)
	}
	resp.QueryTime = time.Since(start)

	if e.logger != nil {
		e.logger.Debug("query served",
			zap.Int("results", len(resp.Results)),
			zap.Duration("took", resp.QueryTime),
		)
	}
	return resp, nil
}
