// Package cli provides CLI output helpers for Kioku.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kioku/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteQueryResults writes query results to w in the given format.
func WriteQueryResults(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	fmt.Fprintf(w, "\n%d results in %s\n\n", len(response.Results), response.QueryTime)
	for i, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. distance %.4f\n", i+1, r.Distance)
		fmt.Fprintf(w, "Document: %s (bytes %d-%d)\n", r.DocumentID, r.Start, r.End)
		if path, ok := r.Metadata["path"]; ok {
			fmt.Fprintf(w, "Path: %s\n", path)
		}
		if r.Text != "" {
			fmt.Fprintf(w, "\n%s\n", Truncate(r.Text, 300))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteSyncReport writes a sync report to w in the given format.
func WriteSyncReport(w io.Writer, report *models.SyncReport, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(w, "Synced %d documents: %d added, %d replaced, %d removed, %d unchanged\n",
		report.Total(), report.Added, report.Replaced, report.Removed, report.Unchanged)
	for _, f := range report.Failed {
		fmt.Fprintf(w, "  failed %s: %s\n", f.DocumentID, f.Error)
	}
	return nil
}

// WriteStats writes index statistics to w in the given format.
func WriteStats(w io.Writer, stats *models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "Entries:    %d\n", stats.EntryCount)
	fmt.Fprintf(w, "Dimension:  %d\n", stats.Dimension)
	fmt.Fprintf(w, "Index size: %d bytes\n", stats.IndexSizeBytes)
	if !stats.LastSync.IsZero() {
		fmt.Fprintf(w, "Last sync:  %s\n", stats.LastSync.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
