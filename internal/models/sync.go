package models

// DocumentFailure records a document whose sync step failed. The index keeps
// the document's previously committed entries, so the result is stale but
// consistent until the next successful sync.
type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// SyncReport summarizes one Sync call. Per-document failures are aggregated
// here rather than aborting the batch; callers distinguish "some documents
// failed" (non-empty Failed) from "index is unusable" (error return).
type SyncReport struct {
	Added     int               `json:"added"`
	Replaced  int               `json:"replaced"`
	Removed   int               `json:"removed"`
	Unchanged int               `json:"unchanged"`
	Failed    []DocumentFailure `json:"failed,omitempty"`
}

// Total returns the number of documents the sync touched or skipped.
func (r *SyncReport) Total() int {
	return r.Added + r.Replaced + r.Removed + r.Unchanged + len(r.Failed)
}
