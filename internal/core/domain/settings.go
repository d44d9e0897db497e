package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies the storage behind a vector index.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps entries in process memory.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists entries in a local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendQdrant stores entries in a Qdrant server.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// MetricCosine is the only similarity metric indexes are created with.
const MetricCosine = "cosine"

// Duration is a time.Duration that reads and writes as a string ("60s").
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// QdrantSettings holds connection details for a Qdrant server.
type QdrantSettings struct {
	URL    string `toml:"url" validate:"omitempty,url"`
	APIKey string `toml:"api_key"`
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Name is the index (collection) name.
	Name string `toml:"name" validate:"required"`

	// Backend selects where the index lives.
	Backend VectorBackend `toml:"backend" validate:"oneof=memory sqlite qdrant"`

	// AutoCreate creates a missing index on open instead of failing.
	AutoCreate bool `toml:"auto_create"`

	// DataDir is where the sqlite backend keeps its database.
	DataDir string `toml:"data_dir"`

	// Metric is the similarity metric fixed at creation.
	Metric string `toml:"metric" validate:"oneof=cosine"`

	Qdrant QdrantSettings `toml:"qdrant"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `toml:"provider" validate:"oneof=ollama openai gemini"`

	// Model is the embedding model name. Ingestion and queries must use the same one.
	Model string `toml:"model" validate:"required"`

	// Dimensions is the vector length produced by Model.
	Dimensions int `toml:"dimensions" validate:"gt=0"`

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string `toml:"base_url" validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Gemini).
	APIKey string `toml:"api_key"`

	// BatchSize is the number of texts sent per embedding call during ingestion.
	BatchSize int `toml:"batch_size" validate:"gt=0"`

	// RequestsPerSecond paces embedding calls during ingestion. Zero disables pacing.
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic || e.Model == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider `toml:"provider" validate:"oneof=openai anthropic gemini ollama"`

	// Model is the LLM model name.
	Model string `toml:"model" validate:"required"`

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string `toml:"base_url" validate:"omitempty,url"`

	// APIKey is the API key (for OpenAI/Anthropic/Gemini).
	APIKey string `toml:"api_key"`

	// Temperature controls sampling randomness.
	Temperature float64 `toml:"temperature" validate:"gte=0,lte=2"`

	// MaxTokens caps the answer length.
	MaxTokens int `toml:"max_tokens" validate:"gt=0"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Model == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings controls query-time retrieval.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per question.
	K int `toml:"k" validate:"gt=0"`
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int `toml:"size" validate:"gt=0"`

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int `toml:"overlap" validate:"gte=0,ltfield=Size"`
}

// DocumentSettings locates the documents to ingest.
type DocumentSettings struct {
	// Dir is the directory scanned (non-recursively) for documents.
	Dir string `toml:"dir" validate:"required"`

	// Pattern is the glob matched against file names.
	Pattern string `toml:"pattern" validate:"required"`
}

// ServerSettings configures the HTTP endpoint.
type ServerSettings struct {
	Addr           string   `toml:"addr" validate:"required"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Config is the complete application configuration.
// It is built once at startup and passed explicitly to each component.
type Config struct {
	Index     IndexSettings     `toml:"index"`
	Embedding EmbeddingSettings `toml:"embedding"`
	LLM       LLMSettings       `toml:"llm"`
	Retrieval RetrievalSettings `toml:"retrieval"`
	Chunking  ChunkingSettings  `toml:"chunking"`
	Documents DocumentSettings  `toml:"documents"`
	Server    ServerSettings    `toml:"server"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Index: IndexSettings{
			Name:       "medical-chatbot",
			Backend:    VectorBackendSQLite,
			AutoCreate: true,
			Metric:     MetricCosine,
			Qdrant:     QdrantSettings{URL: "http://localhost:6333"},
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "all-minilm",
			Dimensions: 384,
			BatchSize:  32,
		},
		LLM: LLMSettings{
			Provider:  AIProviderOpenAI,
			Model:     "gpt-4o",
			MaxTokens: 1024,
		},
		Retrieval: RetrievalSettings{K: 3},
		Chunking:  ChunkingSettings{Size: 500, Overlap: 20},
		Documents: DocumentSettings{Dir: "data", Pattern: "*.pdf"},
		Server: ServerSettings{
			Addr:           ":8080",
			RequestTimeout: Duration(60 * time.Second),
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "gemini-embedding-001",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o",
		AIProviderAnthropic: "claude-sonnet-4-5",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
	}
}
