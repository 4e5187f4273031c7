// Package index owns the vector store for one index path: loading, creation,
// invariant checks against the embedding provider, and the single-writer
// mutation discipline.
package index

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

// Manager owns one Store per index path. Mutations go through Commit, which
// serializes writers (in-process mutex plus an advisory file lock held for
// the manager's lifetime) and persists atomically after each step. Readers
// always see a fully loaded snapshot.
type Manager struct {
	path     string
	embedder embedding.Embedder
	metric   vector.Metric
	logger   *zap.Logger

	lock *fileLock

	mu    sync.Mutex // serializes Commit sequences
	store *vector.Store
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetric sets the distance metric used when creating a fresh index.
// An existing index keeps the metric it was created with.
func WithMetric(m vector.Metric) Option {
	return func(mg *Manager) { mg.metric = m }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(mg *Manager) { mg.logger = l }
}

// Open loads the index at path, or prepares an empty one if the file does not
// exist yet. The embedding provider recorded in an existing file must match
// the active provider (ErrProviderMismatch), and its dimension must match the
// provider's (ErrDimensionMismatch); both are fatal configuration errors.
func Open(path string, embedder embedding.Embedder, opts ...Option) (*Manager, error) {
	m := &Manager{
		path:     path,
		embedder: embedder,
		metric:   vector.MetricSquaredL2,
	}
	for _, opt := range opts {
		opt(m)
	}

	lock, err := acquireFileLock(path + ".lock")
	if err != nil {
		return nil, err
	}
	m.lock = lock

	if _, err := os.Stat(path); err == nil {
		store, err := vector.Load(path)
		if err != nil {
			_ = lock.release()
			return nil, err
		}
		if store.ProviderID() != embedder.ProviderID() {
			_ = lock.release()
			return nil, fmt.Errorf("index built with provider %q, active provider is %q: %w",
				store.ProviderID(), embedder.ProviderID(), vector.ErrProviderMismatch)
		}
		if d := embedder.Dimensions(); d > 0 && d != store.Dimension() {
			_ = lock.release()
			return nil, fmt.Errorf("index dimension %d, provider dimension %d: %w",
				store.Dimension(), d, vector.ErrDimensionMismatch)
		}
		m.store = store
		if m.logger != nil {
			m.logger.Debug("index loaded",
				zap.String("path", path),
				zap.Int("entries", store.Len()),
				zap.Int("dimension", store.Dimension()),
			)
		}
	} else if !os.IsNotExist(err) {
		_ = lock.release()
		return nil, fmt.Errorf("stat index file: %w", err)
	}
	return m, nil
}

// Store returns the current store, or nil when the index is empty and the
// dimension has not been discovered yet.
func (m *Manager) Store() *vector.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store
}

// Path returns the index file path.
func (m *Manager) Path() string { return m.path }

// ensureStoreLocked creates the store on first use, fixing the dimension
// discovered from the first successful embedding. Callers hold m.mu.
func (m *Manager) ensureStoreLocked(dim int) error {
	if m.store != nil {
		if dim != m.store.Dimension() {
			return fmt.Errorf("got %d, index has %d: %w", dim, m.store.Dimension(), vector.ErrDimensionMismatch)
		}
		return nil
	}
	store, err := vector.NewStore(dim, m.metric, m.embedder.ProviderID())
	if err != nil {
		return err
	}
	m.store = store
	if m.logger != nil {
		m.logger.Debug("index created", zap.String("path", m.path), zap.Int("dimension", dim))
	}
	return nil
}

// Commit runs one atomic mutation step: fn mutates the store under the write
// lock, then the store is saved (staged to a temp file, renamed into place).
// dim is the vector dimension of the data being written; it fixes the
// dimension of a fresh index and is validated against an existing one.
// If fn fails nothing is persisted.
func (m *Manager) Commit(dim int, fn func(s *vector.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureStoreLocked(dim); err != nil {
		return err
	}
	if err := fn(m.store); err != nil {
		return err
	}
	return m.store.Save(m.path)
}

// CommitRemoval is Commit for delete-only steps, which need no dimension and
// are a no-op on an index that was never written.
func (m *Manager) CommitRemoval(fn func(s *vector.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	if err := fn(m.store); err != nil {
		return err
	}
	return m.store.Save(m.path)
}

// Stats reports entry count, dimension, on-disk size, and last sync time.
// The last sync time is the index file's mtime; it is deliberately not stored
// in the file so that identical logical state stays byte-identical on disk.
func (m *Manager) Stats() (models.Stats, error) {
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()

	var st models.Stats
	if store != nil {
		st.EntryCount = store.Len()
		st.Dimension = store.Dimension()
	}
	size, err := storage.DiskUsageBytes(m.path)
	if err != nil {
		return st, fmt.Errorf("index disk usage: %w", err)
	}
	st.IndexSizeBytes = size
	if info, err := os.Stat(m.path); err == nil {
		st.LastSync = info.ModTime()
	}
	return st, nil
}

// Close releases the file lock. The store stays usable for reads.
func (m *Manager) Close() error {
	if m.lock != nil {
		err := m.lock.release()
		m.lock = nil
		return err
	}
	return nil
}
