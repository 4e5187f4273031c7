// Package storage persists document and chunk text so query hits can be
// resolved back to human-readable source text. The vector index itself lives
// in its own binary file; this store is the content side of it.
package storage

import (
	"context"

	"github.com/hyperjump/kioku/internal/models"
)

// Storage defines document and chunk content persistence.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocumentIDs(ctx context.Context) ([]string, error)

	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.Chunk, error)
	DeleteChunksByDocumentID(ctx context.Context, docID string) error

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
