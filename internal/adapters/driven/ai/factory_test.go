package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantErr  bool
	}{
		{
			name:     "nil settings",
			settings: nil,
			wantErr:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "all-minilm",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "gemini provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
				APIKey:   "test-key",
				Model:    "gemini-embedding-001",
			},
		},
		{
			name: "openai without key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantErr: true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude",
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			settings: &domain.EmbeddingSettings{
				Provider: "cohere",
				Model:    "embed",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
	})
	require.NoError(t, err)
	assert.Equal(t, 768, svc.Dimensions(), "known model size is used when not configured")

	svc, err = CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		Model:      "nomic-embed-text",
		Dimensions: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantErr  bool
	}{
		{"nil settings", nil, true},
		{"ollama", &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}, false},
		{"openai", &domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o", APIKey: "k"}, false},
		{"anthropic", &domain.LLMSettings{Provider: domain.AIProviderAnthropic, Model: "claude", APIKey: "k"}, false},
		{"gemini", &domain.LLMSettings{Provider: domain.AIProviderGemini, Model: "gemini-2.5-flash", APIKey: "k"}, false},
		{"openai without key", &domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o"}, true},
		{"unknown provider", &domain.LLMSettings{Provider: "cohere", Model: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable ollama", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer srv.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "all-minilm",
			BaseURL:  srv.URL,
		})

		require.NoError(t, err)
		assert.Equal(t, "all-minilm", svc.ModelName())
	})

	t.Run("unreachable ollama", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "all-minilm",
			BaseURL:  url,
		})

		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("misconfigured", func(t *testing.T) {
		_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
		})

		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  url,
	})

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}
