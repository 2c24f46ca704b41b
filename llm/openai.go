package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"pdf-vector-uploader/utils"
)

// DefaultEmbeddingModel is used when the config names none
const DefaultEmbeddingModel = "text-embedding-3-large"

// OpenAIEmbedder implements Embedder with the OpenAI embeddings API
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
	logger *utils.Logger
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(config Config, logger *utils.Logger) *OpenAIEmbedder {
	// Allow empty API key - the API rejects it on first use
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.HTTPClient != nil {
		clientConfig.HTTPClient = config.HTTPClient
	}

	if config.Model == "" {
		config.Model = DefaultEmbeddingModel
	}
	if config.Attempts <= 0 {
		config.Attempts = 3
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}
}

// Embed creates an embedding, retrying failed calls
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= e.config.Attempts; attempt++ {
		vector, err := e.embedOnce(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		// Cancellation is not worth retrying
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == e.config.Attempts {
			break
		}

		e.logger.Warn("Embedding attempt %d/%d failed: %v", attempt, e.config.Attempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.config.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to create embedding after %d attempts: %w", e.config.Attempts, lastErr)
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.config.Model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	return resp.Data[0].Embedding, nil
}

// Ping embeds a tiny string once, without retries
func (e *OpenAIEmbedder) Ping(ctx context.Context) error {
	if e.config.APIKey == "" {
		return errors.New("API key is required")
	}
	if _, err := e.embedOnce(ctx, "ping"); err != nil {
		return fmt.Errorf("embedding test failed: %w", err)
	}
	return nil
}
