package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"pdf-vector-uploader/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnreachable = errors.New("backend unreachable")

// memBackend is an in-memory Backend that can be switched offline
type memBackend struct {
	mu      sync.Mutex
	value   Settings
	offline bool
	saves   int
}

func (b *memBackend) Load(ctx context.Context) (Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.offline {
		return Settings{}, errUnreachable
	}
	return b.value, nil
}

func (b *memBackend) Save(ctx context.Context, s Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.offline {
		return errUnreachable
	}
	b.value = s
	b.saves++
	return nil
}

func sample() Settings {
	return Settings{
		OpenAIAPIKey:      "sk-test",
		PineconeAPIKey:    "pc-test",
		PineconeIndexHost: "idx-123.svc.pinecone.io",
		PineconeNamespace: "papers",
	}
}

func TestDefault(t *testing.T) {
	assert.Equal(t, Settings{
		OpenAIAPIKey:      "",
		PineconeAPIKey:    "",
		PineconeIndexHost: "",
		PineconeNamespace: "book",
	}, Default())
}

func TestSettings_WithAndGet(t *testing.T) {
	s, err := Default().With(FieldPineconeIndexHost, "host")
	require.NoError(t, err)
	assert.Equal(t, "host", s.Get(FieldPineconeIndexHost))
	assert.Equal(t, "book", s.Get(FieldPineconeNamespace))

	_, err = s.With(Field("color"), "blue")
	assert.Error(t, err)
}

func TestFromValues_KeepsDefaultsForMissingKeys(t *testing.T) {
	s := FromValues(map[string]string{"openai_api_key": "k"})
	assert.Equal(t, "k", s.OpenAIAPIKey)
	assert.Equal(t, "book", s.PineconeNamespace)

	assert.Equal(t, sample(), FromValues(sample().Values()))
}

func TestStore_LoadUnreachableReturnsDefaults(t *testing.T) {
	store := NewStore(&memBackend{value: sample(), offline: true}, nil)
	assert.Equal(t, Default(), store.Load(context.Background()))
}

func TestStore_SaveUnreachablePropagates(t *testing.T) {
	store := NewStore(&memBackend{offline: true}, nil)
	err := store.Save(context.Background(), sample())
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnreachable)
}

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	backend := NewFileBackend(path)
	ctx := context.Background()

	s, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), s, "missing file yields defaults")

	require.NoError(t, backend.Save(ctx, sample()))
	s, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), s)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileBackend_PartialAndMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	backend := NewFileBackend(path)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte(`{"openai_api_key":"k"}`), 0600))
	s, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k", s.OpenAIAPIKey)
	assert.Equal(t, "book", s.PineconeNamespace)

	require.NoError(t, os.WriteFile(path, []byte(`{"openai_api_key":`), 0600))
	_, err = backend.Load(ctx)
	assert.Error(t, err)

	// Through the store the malformed file degrades to defaults
	assert.Equal(t, Default(), NewStore(backend, nil).Load(ctx))
}

func TestFileBackend_SaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// The parent "directory" is a regular file
	backend := NewFileBackend(filepath.Join(blocker, "settings.json"))
	assert.Error(t, backend.Save(context.Background(), sample()))
}

func TestSQLiteBackend_RoundTrip(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	backend := NewSQLiteBackend(database)
	ctx := context.Background()

	s, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	require.NoError(t, backend.Save(ctx, sample()))
	s, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), s)

	// Full replace, empty strings included
	require.NoError(t, backend.Save(ctx, Settings{PineconeNamespace: "x"}))
	s, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Settings{PineconeNamespace: "x"}, s)
}
