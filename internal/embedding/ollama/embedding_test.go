package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, handler func(req embedRequest) embedResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NoError(t, json.NewEncoder(w).Encode(handler(req)))
	}))
}

func TestEmbedBatch(t *testing.T) {
	var gotModel string
	srv := embedServer(t, func(req embedRequest) embedResponse {
		gotModel = req.Model
		out := make([][]float64, len(req.Input))
		for i := range req.Input {
			out[i] = []float64{float64(i), 1.5}
		}
		return embedResponse{Embeddings: out}
	})
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "nomic-embed-text"})
	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text", gotModel)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{0, 1.5}, vecs[0])
	assert.Equal(t, []float32{2, 1.5}, vecs[2])
}

func TestEmbedBatch_SplitsOversizedBatches(t *testing.T) {
	var requests int
	srv := embedServer(t, func(req embedRequest) embedResponse {
		requests++
		assert.LessOrEqual(t, len(req.Input), maxBatch)
		out := make([][]float64, len(req.Input))
		for i := range req.Input {
			out[i] = []float64{1}
		}
		return embedResponse{Embeddings: out}
	})
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	texts := make([]string, maxBatch+10)
	for i := range texts {
		texts[i] = "t"
	}

	vecs, err := s.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, maxBatch+10)
	assert.Equal(t, 2, requests)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	srv := embedServer(t, func(req embedRequest) embedResponse {
		return embedResponse{Embeddings: [][]float64{{1}}} // always one
	})
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 texts")
}

func TestEmbedBatch_Empty(t *testing.T) {
	s := NewEmbeddingService(Config{BaseURL: "http://unused.invalid"})
	vecs, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbed(t *testing.T) {
	srv := embedServer(t, func(req embedRequest) embedResponse {
		require.Len(t, req.Input, 1)
		return embedResponse{Embeddings: [][]float64{{0.25, 0.5}}}
	})
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	vec, err := s.Embed(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5}, vec)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	_, err := s.Embed(context.Background(), "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
}
