package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI answers /v1/embeddings, failing the first failFirst calls
func fakeOpenAI(t *testing.T, failFirst int32, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-large", req.Model)

		w.Header().Set("Content-Type", "application/json")
		if n <= failFirst {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"temporary failure","type":"server_error"}}`))
			return
		}
		w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-large","usage":{"prompt_tokens":1,"total_tokens":1}}`))
	}))
}

func newTestEmbedder(url string, attempts int) *OpenAIEmbedder {
	return NewOpenAIEmbedder(Config{
		APIKey:     "sk-test",
		BaseURL:    url + "/v1",
		Attempts:   attempts,
		RetryDelay: time.Millisecond,
	}, nil)
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var calls int32
	srv := fakeOpenAI(t, 0, &calls)
	defer srv.Close()

	vector, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, int32(1), calls)
}

func TestOpenAIEmbedder_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := fakeOpenAI(t, 2, &calls)
	defer srv.Close()

	vector, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
	assert.Equal(t, int32(3), calls)
}

func TestOpenAIEmbedder_GivesUp(t *testing.T) {
	var calls int32
	srv := fakeOpenAI(t, 10, &calls)
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL, 3).Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls)
}

func TestOpenAIEmbedder_CancelledContext(t *testing.T) {
	var calls int32
	srv := fakeOpenAI(t, 10, &calls)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEmbedder(srv.URL, 3).Embed(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAIEmbedder_Ping(t *testing.T) {
	var calls int32
	srv := fakeOpenAI(t, 0, &calls)
	defer srv.Close()

	require.NoError(t, newTestEmbedder(srv.URL, 3).Ping(context.Background()))

	noKey := NewOpenAIEmbedder(Config{BaseURL: srv.URL + "/v1"}, nil)
	assert.Error(t, noKey.Ping(context.Background()))
}
