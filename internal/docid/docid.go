// Package docid derives stable document identifiers and content hashes.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "doc:"

// ForPath returns a stable document ID for the given path. The same path
// always yields the same ID, so re-syncing a regenerated file replaces the
// same document instead of accumulating copies.
func ForPath(path string) string {
	normalized := filepath.Clean(path)
	sum := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(sum[:])
}

// ContentHash returns the hex SHA-256 of text, the change marker the
// synchronizer compares against the index side table.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
