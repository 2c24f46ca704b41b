// Package pdf implements the processing backend: it extracts the text of a
// PDF, embeds it chunk by chunk and stores the vectors in the index named
// by the current settings.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"pdf-vector-uploader/llm"
	"pdf-vector-uploader/settings"
	"pdf-vector-uploader/utils"
	"pdf-vector-uploader/vectorstore"
)

var (
	// ErrNotPDF is returned when the file content is not a PDF document
	ErrNotPDF = errors.New("file is not a PDF document")
	// ErrEmptyDocument is returned when no text could be extracted
	ErrEmptyDocument = errors.New("no text found in document")
)

// SettingsLoader supplies the credentials for one run
type SettingsLoader interface {
	Load(ctx context.Context) settings.Settings
}

// Factories build the per-run collaborators from the loaded settings
type Factories struct {
	Embedder func(s settings.Settings) llm.Embedder
	Storage  func(s settings.Settings) (vectorstore.Storage, error)
}

// DefaultFactories wires OpenAI and Pinecone
func DefaultFactories(cfg utils.ProcessingConfig, httpClient *http.Client, logger *utils.Logger) Factories {
	return Factories{
		Embedder: func(s settings.Settings) llm.Embedder {
			return llm.NewOpenAIEmbedder(llm.Config{
				APIKey:     s.OpenAIAPIKey,
				BaseURL:    cfg.OpenAIBaseURL,
				Model:      cfg.EmbeddingModel,
				Attempts:   cfg.EmbeddingAttempts,
				RetryDelay: cfg.RetryDelay(),
				HTTPClient: httpClient,
			}, logger)
		},
		Storage: func(s settings.Settings) (vectorstore.Storage, error) {
			return vectorstore.NewPineconeStorage(s.PineconeAPIKey, s.PineconeIndexHost, s.PineconeNamespace, httpClient)
		},
	}
}

// Processor runs the whole extract, embed and upload pipeline
type Processor struct {
	loader      SettingsLoader
	factories   Factories
	chunkSize   int
	concurrency int
	logger      *utils.Logger
}

// NewProcessor creates a processor
func NewProcessor(loader SettingsLoader, cfg utils.ProcessingConfig, factories Factories, logger *utils.Logger) *Processor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 8000
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Processor{
		loader:      loader,
		factories:   factories,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessDocument extracts, embeds and uploads the PDF at path and returns
// a short summary of what was stored
func (p *Processor) ProcessDocument(ctx context.Context, path string) (string, error) {
	p.logger.Info("Processing PDF: %s", path)

	ok, err := utils.IsPDFContent(path)
	if err != nil {
		return "", err
	}
	if !ok {
		detected, _ := utils.DetectMimeType(path)
		return "", fmt.Errorf("%s (%s): %w", path, detected, ErrNotPDF)
	}

	text, err := ExtractText(path)
	if err != nil {
		return "", err
	}
	p.logger.Info("Extracted %d characters from %s", len([]rune(text)), path)

	return p.ProcessText(ctx, text)
}

// ProcessText replaces the namespace content with the chunks of text
func (p *Processor) ProcessText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	chunks := SplitChunks(text, p.chunkSize)
	p.logger.Info("Text split into %d chunks", len(chunks))

	s := p.loader.Load(ctx)
	storage, err := p.factories.Storage(s)
	if err != nil {
		return "", fmt.Errorf("failed to connect to vector store: %w", err)
	}
	embedder := p.factories.Embedder(s)

	if err := storage.Clear(ctx); err != nil {
		return "", err
	}

	vectors := make([]vectorstore.Vector, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			values, err := embedder.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			vectors[i] = vectorstore.Vector{
				ID:     fmt.Sprintf("chunk_%d", i),
				Values: values,
				Text:   chunk,
			}
			p.logger.Debug("Embedded chunk %d/%d", i+1, len(chunks))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if err := storage.Upsert(ctx, vectors); err != nil {
		return "", err
	}

	return fmt.Sprintf("Processed and uploaded %d chunks", len(chunks)), nil
}
