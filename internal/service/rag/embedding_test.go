package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newEmbeddingServer(t *testing.T, handler http.HandlerFunc) *EmbeddingClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewEmbeddingClient(EmbeddingConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewEmbeddingClient err: %v", err)
	}
	return client
}

func TestEmbedReturnsVectorsInInputOrder(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", got)
		}

		// Indices deliberately out of order.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float64{0, 1}},
				{"index": 0, "embedding": []float64{1, 0}},
			},
		})
	})

	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed err: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors not reordered by index: %v", vectors)
	}
}

func TestEmbedRejectsCountMismatch(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 0, "embedding": []float64{1}},
			},
		})
	})

	if _, err := client.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestEmbedPropagatesProviderError(t *testing.T) {
	client := newEmbeddingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := client.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected status error")
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	client := newEmbeddingServer(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for empty input")
	})

	vectors, err := client.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed err: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected no vectors, got %v", vectors)
	}
}

func TestNewEmbeddingClientRequiresKey(t *testing.T) {
	if _, err := NewEmbeddingClient(EmbeddingConfig{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
