package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pdf-vector-uploader/utils"
)

// FileBackend keeps settings as pretty-printed JSON
type FileBackend struct {
	path string
}

// NewFileBackend stores settings at path, or in the per-user config
// directory when path is empty
func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultFilePath()
	}
	return &FileBackend{path: path}
}

// DefaultFilePath returns <user config dir>/pdf-vector-uploader/settings.json
func DefaultFilePath() string {
	return filepath.Join(utils.GetConfigDir(), "settings.json")
}

// Path returns the backing file
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads the file. A missing file yields the defaults.
func (b *FileBackend) Load(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	// Fields absent from older files keep their defaults
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes the whole record through a temp file and rename
func (b *FileBackend) Save(ctx context.Context, s Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	// API keys live here
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to set settings permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
