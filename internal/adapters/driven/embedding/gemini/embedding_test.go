package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func TestEmbeddingService_ImplementsInterface(t *testing.T) {
	var _ driven.EmbeddingService = (*EmbeddingService)(nil)
}

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewEmbeddingService(context.Background(), Config{})
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("defaults", func(t *testing.T) {
		svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, svc.ModelName())
		assert.Equal(t, DefaultDimensions, svc.Dimensions())
	})
}

// fakeGemini answers batch embedding requests with [len(text), 0, 0, 0] per input.
func fakeGemini(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
			return
		}
		var req struct {
			Requests []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		embeddings := make([]map[string]any, 0, len(req.Requests))
		for _, item := range req.Requests {
			n := 0
			for _, p := range item.Content.Parts {
				n += len(p.Text)
			}
			embeddings = append(embeddings, map[string]any{"values": []float32{float32(n), 0, 0, 0}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbeddingService_Embed(t *testing.T) {
	srv := fakeGemini(t, http.StatusOK)
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, Dimensions: 4})
	require.NoError(t, err)

	vectors, err := svc.Embed(context.Background(), []string{"abc", "a"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 0, 0, 0}, {1, 0, 0, 0}}, vectors)
}

func TestEmbeddingService_Embed_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)

	vectors, err := svc.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbeddingService_Embed_APIError(t *testing.T) {
	srv := fakeGemini(t, http.StatusForbidden)
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, Dimensions: 4})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), []string{"abc"})

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}
