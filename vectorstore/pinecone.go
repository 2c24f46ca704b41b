package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PineconeAPIVersion is sent with every data-plane request
const PineconeAPIVersion = "2024-07"

const (
	// maxUpsertBatch is Pinecone's recommended vectors per request
	maxUpsertBatch = 100
	// maxUpsertBytes keeps an encoded upsert body under Pinecone's 2MB limit
	maxUpsertBytes = 2_000_000
)

// PineconeStorage talks to one index host over the Pinecone data-plane
// REST API
type PineconeStorage struct {
	baseURL    string
	apiKey     string
	namespace  string
	httpClient *http.Client
}

// NewPineconeStorage creates a client for the index at host. host may be
// given with or without scheme.
func NewPineconeStorage(apiKey, host, namespace string, httpClient *http.Client) (*PineconeStorage, error) {
	host = strings.TrimSpace(host)
	if apiKey == "" || host == "" {
		return nil, ErrNotConfigured
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &PineconeStorage{
		baseURL:    strings.TrimRight(host, "/"),
		apiKey:     apiKey,
		namespace:  namespace,
		httpClient: httpClient,
	}, nil
}

// Namespace returns the namespace vectors are written to
func (p *PineconeStorage) Namespace() string {
	return p.namespace
}

type pineconeVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []json.RawMessage `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll"`
	Namespace string `json:"namespace"`
}

// Upsert writes vectors in batches, each with its chunk text as metadata.
// A batch is flushed before its encoded body would pass maxUpsertBytes.
func (p *PineconeStorage) Upsert(ctx context.Context, vectors []Vector) error {
	envelope, err := json.Marshal(upsertRequest{Vectors: []json.RawMessage{}, Namespace: p.namespace})
	if err != nil {
		return fmt.Errorf("failed to encode upsert request: %w", err)
	}

	batch := upsertRequest{Namespace: p.namespace}
	size := len(envelope)
	for _, v := range vectors {
		encoded, err := json.Marshal(pineconeVector{
			ID:       v.ID,
			Values:   v.Values,
			Metadata: map[string]string{"text": v.Text},
		})
		if err != nil {
			return fmt.Errorf("failed to encode vector %s: %w", v.ID, err)
		}
		if len(envelope)+len(encoded) > maxUpsertBytes {
			return fmt.Errorf("failed to upsert vectors: vector %s encodes to %d bytes, over the %d byte request limit",
				v.ID, len(encoded), maxUpsertBytes)
		}

		// one separator per vector after the first
		grown := size + len(encoded)
		if len(batch.Vectors) > 0 {
			grown++
		}
		if len(batch.Vectors) == maxUpsertBatch || grown > maxUpsertBytes {
			if err := p.upsertBatch(ctx, batch); err != nil {
				return err
			}
			batch.Vectors = nil
			grown = len(envelope) + len(encoded)
		}
		batch.Vectors = append(batch.Vectors, encoded)
		size = grown
	}

	if len(batch.Vectors) > 0 {
		return p.upsertBatch(ctx, batch)
	}
	return nil
}

func (p *PineconeStorage) upsertBatch(ctx context.Context, batch upsertRequest) error {
	var resp upsertResponse
	if err := p.post(ctx, "/vectors/upsert", batch, &resp); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	if resp.UpsertedCount != len(batch.Vectors) {
		return fmt.Errorf("failed to upsert vectors: stored %d of %d", resp.UpsertedCount, len(batch.Vectors))
	}
	return nil
}

// Clear deletes every vector in the namespace
func (p *PineconeStorage) Clear(ctx context.Context) error {
	err := p.post(ctx, "/vectors/delete", deleteRequest{DeleteAll: true, Namespace: p.namespace}, nil)
	if err != nil {
		// An empty namespace does not exist yet
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to clear namespace %q: %w", p.namespace, err)
	}
	return nil
}

// APIError carries a non-2xx answer from Pinecone
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinecone returned status %d: %s", e.StatusCode, e.Body)
}

func (p *PineconeStorage) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("X-Pinecone-API-Version", PineconeAPIVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
