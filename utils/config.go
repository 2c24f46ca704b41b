package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// AppName is used for the config directory and the Fyne app ID
const AppName = "pdf-vector-uploader"

// Config represents the application configuration
type Config struct {
	UI         UIConfig         `json:"ui"`
	Data       DataConfig       `json:"data"`
	Processing ProcessingConfig `json:"processing"`
	Log        LogConfig        `json:"log"`
	Proxy      ProxyConfig      `json:"proxy"`
}

// UIConfig represents UI configuration
type UIConfig struct {
	Theme          string `json:"theme"`
	FontSize       int    `json:"font_size"`
	WindowWidth    int    `json:"window_width"`
	WindowHeight   int    `json:"window_height"`
	MinimizeToTray bool   `json:"minimize_to_tray"`
}

// DataConfig represents data storage configuration
type DataConfig struct {
	DBPath          string `json:"db_path"`
	SettingsBackend string `json:"settings_backend"` // "file" or "sqlite"
	SettingsPath    string `json:"settings_path,omitempty"`
	MaxHistory      int    `json:"max_history"`
}

// ProcessingConfig tunes the PDF processing backend
type ProcessingConfig struct {
	TimeoutSeconds    int    `json:"timeout_seconds"` // 0 means no timeout
	ChunkSize         int    `json:"chunk_size"`
	EmbeddingModel    string `json:"embedding_model"`
	EmbeddingAttempts int    `json:"embedding_attempts"`
	RetryDelaySeconds int    `json:"retry_delay_seconds"`
	Concurrency       int    `json:"concurrency"`
	OpenAIBaseURL     string `json:"openai_base_url,omitempty"`
}

// LogConfig represents log output configuration
type LogConfig struct {
	Path       string `json:"path"`
	Level      string `json:"level"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// ProxyConfig represents proxy configuration
type ProxyConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// Timeout returns the processing timeout, zero when unbounded
func (p ProcessingConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between embedding attempts
func (p ProcessingConfig) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelaySeconds) * time.Second
}

// HTTPClient builds the client used for OpenAI and Pinecone calls
func (p ProxyConfig) HTTPClient() (*http.Client, error) {
	if !p.Enabled || p.URL == "" {
		return &http.Client{}, nil
	}
	proxyURL, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

// DefaultConfig returns the configuration written on first start
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Theme:          "light",
			FontSize:       14,
			WindowWidth:    640,
			WindowHeight:   520,
			MinimizeToTray: false,
		},
		Data: DataConfig{
			DBPath:          "./data/uploads.db",
			SettingsBackend: "file",
			MaxHistory:      200,
		},
		Processing: ProcessingConfig{
			TimeoutSeconds:    0,
			ChunkSize:         8000,
			EmbeddingModel:    "text-embedding-3-large",
			EmbeddingAttempts: 3,
			RetryDelaySeconds: 2,
			Concurrency:       4,
		},
		Log: LogConfig{
			Path:       GetLogPath(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so sections missing in older files stay usable
	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Expand paths
	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}
	if config.Data.SettingsPath != "" {
		config.Data.SettingsPath = expandPath(config.Data.SettingsPath)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(configPath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	// Expand ~
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}

// GetConfigDir returns the per-user directory holding config and settings
func GetConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to current directory
		return "./config"
	}
	return filepath.Join(configDir, AppName)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.json")
}

// EnsureDefaultConfig creates a default config file at configPath if it
// doesn't exist yet
func EnsureDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}
	return SaveConfig(configPath, DefaultConfig())
}
