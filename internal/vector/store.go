// Package vector provides the persistent vector store: exact similarity
// search over fixed-dimension entries with a binary on-disk format.
package vector

import (
	"fmt"
	"sort"
	"sync"
)

// Metadata is the typed side-table record for one entry. DocumentID and the
// offsets are the recognized keys; Extra is an open extension map for forward
// compatibility. Validated at write time.
type Metadata struct {
	DocumentID string            `json:"document_id"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Entry is the unit stored in the store: a chunk's embedding plus metadata.
type Entry struct {
	ID     string
	Vector []float32
	Meta   Metadata
}

// Result is a single search hit, ascending by distance.
type Result struct {
	ID       string
	Distance float64
	Meta     Metadata
}

// Store is an in-memory collection of vector entries with exact search and
// binary persistence. All entries share one dimension and one metric. The
// store is safe for concurrent readers; mutations take the write lock, and
// the index manager serializes mutate+save sequences on top of that.
type Store struct {
	mu         sync.RWMutex
	dim        int
	metric     Metric
	providerID string
	vectors    map[string][]float32
	meta       map[string]Metadata
	docHashes  map[string]string
}

// NewStore creates an empty store with a fixed dimension and metric.
// providerID names the embedding provider the vectors came from; it is
// persisted so a provider switch is detected at load time.
func NewStore(dim int, metric Metric, providerID string) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if metric == "" {
		metric = MetricSquaredL2
	}
	return &Store{
		dim:        dim,
		metric:     metric,
		providerID: providerID,
		vectors:    make(map[string][]float32),
		meta:       make(map[string]Metadata),
		docHashes:  make(map[string]string),
	}, nil
}

// Dimension returns the fixed vector dimension.
func (s *Store) Dimension() int { return s.dim }

// Metric returns the distance metric fixed at creation.
func (s *Store) Metric() Metric { return s.metric }

// ProviderID returns the embedding provider identifier recorded in the store.
func (s *Store) ProviderID() string { return s.providerID }

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Add appends entries. The whole batch is validated before anything is
// committed, so a failed Add leaves the store unchanged. Fails with
// ErrDimensionMismatch for a wrong-length vector and ErrDuplicateID for an
// ID that already exists (including duplicates within the batch).
func (s *Store) Add(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry id must not be empty")
		}
		if len(e.Vector) != s.dim {
			return fmt.Errorf("entry %s: got %d, expected %d: %w", e.ID, len(e.Vector), s.dim, ErrDimensionMismatch)
		}
		if e.Meta.DocumentID == "" {
			return fmt.Errorf("entry %s: metadata document id must not be empty", e.ID)
		}
		if _, exists := s.vectors[e.ID]; exists || seen[e.ID] {
			return fmt.Errorf("entry %s: %w", e.ID, ErrDuplicateID)
		}
		seen[e.ID] = true
	}
	for _, e := range entries {
		vec := make([]float32, s.dim)
		copy(vec, e.Vector)
		s.vectors[e.ID] = vec
		s.meta[e.ID] = e.Meta
	}
	return nil
}

// Remove deletes entries by ID and returns how many existed. Removing a
// missing ID is not an error, just not counted.
func (s *Store) Remove(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := s.vectors[id]; ok {
			delete(s.vectors, id)
			delete(s.meta, id)
			removed++
		}
	}
	return removed
}

// Search returns up to k entries ascending by distance to query (exact scan
// over every entry, O(N·D)). Equal distances break ties ascending by ID so
// result order is reproducible. An empty store returns an empty slice.
func (s *Store) Search(query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, ErrInvalidLimit
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query vector: got %d, expected %d: %w", len(query), s.dim, ErrDimensionMismatch)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]Result, 0, len(s.vectors))
	for id, vec := range s.vectors {
		results = append(results, Result{
			ID:       id,
			Distance: s.metric.Distance(query, vec),
			Meta:     s.meta[id],
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Meta returns the metadata for an entry ID.
func (s *Store) Meta(id string) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[id]
	return m, ok
}

// EntryIDsForDocument returns the sorted IDs of all entries whose parent
// document matches docID.
func (s *Store) EntryIDsForDocument(docID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, m := range s.meta {
		if m.DocumentID == docID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Documents returns the sorted document IDs recorded in the side table.
func (s *Store) Documents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docHashes))
	for id := range s.docHashes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DocumentHash returns the recorded content hash for a document ID.
func (s *Store) DocumentHash(docID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.docHashes[docID]
	return h, ok
}

// SetDocumentHash records the content hash for a document ID.
func (s *Store) SetDocumentHash(docID, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docHashes[docID] = hash
}

// DeleteDocumentHash drops the side-table record for a document ID.
func (s *Store) DeleteDocumentHash(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docHashes, docID)
}

// sortedIDs returns all entry IDs in ascending order. Callers hold the lock.
func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.vectors))
	for id := range s.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
