package vector

import "fmt"

// Searcher is the pluggable search strategy of a store. The exact scan is the
// only built-in; an approximate index (graph- or partition-based) can be
// swapped in behind this interface without changing the persisted format.
type Searcher interface {
	Search(query []float32, k int) ([]Result, error)
}

// SearcherType selects a search strategy.
type SearcherType string

const (
	// SearcherExact scans every entry, guaranteeing the true nearest
	// neighbors. O(N·D) per query; the accepted baseline for correctness.
	SearcherExact SearcherType = "exact"
)

// NewSearcher returns a searcher of the given type backed by the store.
// Empty means exact.
func (s *Store) NewSearcher(kind string) (Searcher, error) {
	switch SearcherType(kind) {
	case SearcherExact, "":
		return exactSearcher{store: s}, nil
	default:
		return nil, fmt.Errorf("unknown searcher type: %s (supported: exact)", kind)
	}
}

type exactSearcher struct {
	store *Store
}

func (e exactSearcher) Search(query []float32, k int) ([]Result, error) {
	return e.store.Search(query, k)
}
