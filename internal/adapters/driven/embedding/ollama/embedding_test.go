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

func embedServer(t *testing.T, respond func(inputs []string) string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(respond(req.Input)))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var seen []string
	server := embedServer(t, func(inputs []string) string {
		seen = inputs
		return `{"model":"nomic-embed-text","embeddings":[[0.1,0.2],[0.3,0.4]]}`
	})
	svc, err := NewEmbeddingService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vectors)
}

func TestEmbeddingService_Embed(t *testing.T) {
	server := embedServer(t, func(_ []string) string {
		return `{"embeddings":[[1,0,0]]}`
	})
	svc, err := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 3})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "vodka")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
	assert.Equal(t, 3, svc.Dimensions())
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	server := embedServer(t, func(_ []string) string {
		return `{"embeddings":[[1]]}`
	})
	svc, err := NewEmbeddingService(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorContains(t, err, "got 1 embeddings for 2 inputs")
}

func TestEmbeddingService_EmptyBatch(t *testing.T) {
	svc, err := NewEmbeddingService(Config{})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}
