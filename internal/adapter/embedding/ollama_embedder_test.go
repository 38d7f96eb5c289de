package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_Encode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req embedRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, []string{"first text", "second text"}, req.Input)

		resp := embedResponse{
			Embeddings: [][]float32{
				{0.1, 0.2, 0.3},
				{0.4, 0.5, 0.6},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "all-minilm", 30)

	vectors, err := embedder.Encode(context.Background(), []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vectors[0])
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, vectors[1])
}

func TestOllamaEmbedder_Encode_EmptyInput(t *testing.T) {
	embedder := NewOllamaEmbedder("http://localhost:11434", "all-minilm", 30)

	vectors, err := embedder.Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestOllamaEmbedder_Encode_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "all-minilm", 30)

	vectors, err := embedder.Encode(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
	assert.Nil(t, vectors)
	assert.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestOllamaEmbedder_Encode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(server.URL, "all-minilm", 30)

	vectors, err := embedder.Encode(context.Background(), []string{"text"})
	assert.Error(t, err)
	assert.Nil(t, vectors)
	assert.Contains(t, err.Error(), "503")
}

func TestOllamaEmbedder_Version(t *testing.T) {
	embedder := NewOllamaEmbedder("http://localhost:11434", "all-minilm", 30)
	assert.Equal(t, "all-minilm", embedder.Version())
}
