package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// Out of order on purpose; vectors are placed by index.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "nomic-embed-text",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float64{0, 3, 4}},
				{"object": "embedding", "index": 0, "embedding": []float64{2, 0, 0}},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/v1", "", "nomic-embed-text", 3)
	vecs, err := e.EmbedBatch(context.Background(), []string{"banjir", "kekeringan"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if vecs[0][0] != 1 {
		t.Errorf("first vector = %v, want [1 0 0]", vecs[0])
	}
	if math.Abs(float64(vecs[1][1])-0.6) > 1e-6 || math.Abs(float64(vecs[1][2])-0.8) > 1e-6 {
		t.Errorf("second vector = %v, want normalized [0 0.6 0.8]", vecs[1])
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": []float64{1, 0}}},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "", "nomic-embed-text", 3)
	if _, err := e.Embed(context.Background(), "banjir"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestRemoteEmbedders_FailOnFirstAttempt(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		make func(url string) (Embedder, error)
	}{
		{"openai", func(url string) (Embedder, error) {
			return NewOpenAIEmbedder(url, "k", "nomic-embed-text", 3), nil
		}},
		{"gemini", func(url string) (Embedder, error) {
			return NewGeminiEmbedder(ctx, url, "k", "gemini-embedding-001", 3)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"backend exploded","code":500}}`))
			}))
			defer srv.Close()

			e, err := tt.make(srv.URL)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := e.Embed(ctx, "banjir"); err == nil {
				t.Fatal("expected error from failing backend")
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("backend called %d times, want 1", got)
			}
		})
	}
}
