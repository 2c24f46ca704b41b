package settings

import (
	"context"
	"fmt"

	"pdf-vector-uploader/utils"
)

// Backend persists a Settings record
type Backend interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Store wraps a Backend with the degradation rules the UI relies on:
// Load never fails, Save always reports failures.
type Store struct {
	backend Backend
	logger  *utils.Logger
}

// NewStore creates a store over backend
func NewStore(backend Backend, logger *utils.Logger) *Store {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Store{backend: backend, logger: logger}
}

// Load returns the persisted settings, or Default() if they cannot be read
func (s *Store) Load(ctx context.Context) Settings {
	loaded, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load settings, using defaults: %v", err)
		return Default()
	}
	return loaded
}

// Save replaces the persisted settings with v
func (s *Store) Save(ctx context.Context, v Settings) error {
	if err := s.backend.Save(ctx, v); err != nil {
		s.logger.Error("Failed to save settings: %v", err)
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.Info("Settings saved (openai key %s, pinecone key %s, host %q, namespace %q)",
		utils.MaskSecret(v.OpenAIAPIKey), utils.MaskSecret(v.PineconeAPIKey),
		v.PineconeIndexHost, v.PineconeNamespace)
	return nil
}
