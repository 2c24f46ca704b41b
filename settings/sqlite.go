package settings

import (
	"context"
	"fmt"

	"pdf-vector-uploader/db"
)

// SQLiteBackend keeps settings in the local database's settings table
type SQLiteBackend struct {
	db *db.DB
}

// NewSQLiteBackend creates a backend over an open database
func NewSQLiteBackend(database *db.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database}
}

func keys() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = string(f)
	}
	return out
}

// Load reads all four keys; keys never written fall back to defaults
func (b *SQLiteBackend) Load(ctx context.Context) (Settings, error) {
	values, err := b.db.GetSettingValues(ctx, keys())
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return FromValues(values), nil
}

// Save replaces all four keys in one transaction
func (b *SQLiteBackend) Save(ctx context.Context, s Settings) error {
	return b.db.ReplaceSettingValues(ctx, s.Values())
}
