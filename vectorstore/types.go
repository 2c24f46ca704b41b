// Package vectorstore writes document chunks and their embeddings to a
// vector index.
package vectorstore

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when the index host or API key is missing
var ErrNotConfigured = errors.New("vector store is not configured")

// Vector is one embedded chunk
type Vector struct {
	ID     string
	Values []float32
	Text   string
}

// Storage is the subset of index operations the processor needs
type Storage interface {
	// Upsert stores or replaces vectors in the configured namespace
	Upsert(ctx context.Context, vectors []Vector) error

	// Clear removes every vector from the configured namespace
	Clear(ctx context.Context) error
}
