package llm

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNoEmbedding is returned when the API answers without any vector
var ErrNoEmbedding = errors.New("no embedding in response")

// Embedder turns text into a vector
type Embedder interface {
	// Embed returns the embedding of text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Ping checks that the credentials are accepted
	Ping(ctx context.Context) error
}

// Config represents embedder configuration
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Attempts   int           // total tries per text, including the first
	RetryDelay time.Duration // pause between tries
	HTTPClient *http.Client
}
