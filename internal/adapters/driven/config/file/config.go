package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Environment variables that override values from the config file.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvQdrantKey    = "QDRANT_API_KEY"
	EnvQdrantURL    = "QDRANT_URL"
	EnvIndexName    = "RAGCHAT_INDEX_NAME"
	EnvDataDir      = "RAGCHAT_DATA_DIR"
)

// AppDirName is the per-user directory holding config, prompts and data.
const AppDirName = ".ragchat"

// ConfigFileName is the name of the config file inside the app directory.
const ConfigFileName = "config.toml"

// Loader reads and writes the TOML configuration file.
type Loader struct {
	path     string
	appDir   string
	validate *validator.Validate
	getenv   func(string) string
}

// NewLoader creates a loader for the given config file.
// If path is empty, defaults to ~/.ragchat/config.toml.
func NewLoader(path string) (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("%w: get home directory: %w", domain.ErrConfiguration, err)
	}
	appDir := filepath.Join(home, AppDirName)
	if path == "" {
		path = filepath.Join(appDir, ConfigFileName)
	}

	return &Loader{
		path:     expandHome(path, home),
		appDir:   appDir,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		getenv:   os.Getenv,
	}, nil
}

// Path returns the config file path.
func (l *Loader) Path() string {
	return l.path
}

// AppDir returns the per-user application directory.
func (l *Loader) AppDir() string {
	return l.appDir
}

// Load builds the effective configuration: defaults, then the file if it
// exists, then environment overrides. The result is validated.
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrConfiguration, l.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// No config file yet, defaults apply
	default:
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, l.path, err)
	}

	applyProviderDefaults(&cfg)
	l.applyEnv(&cfg)
	l.resolvePaths(&cfg)

	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and returns ErrConfiguration naming
// every failing field.
func (l *Loader) Validate(cfg *domain.Config) error {
	err := l.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fieldPath(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("%w: invalid fields: %s", domain.ErrConfiguration, strings.Join(fields, ", "))
}

// Save writes cfg to the config file, creating the directory if needed.
// Secrets are written as given, so the file is created with 0600.
func (l *Loader) Save(cfg *domain.Config) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("%w: create config directory: %w", domain.ErrIO, err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: encode config: %w", domain.ErrConfiguration, err)
	}

	if err := os.WriteFile(l.path, data, 0600); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrIO, l.path, err)
	}
	return nil
}

// applyProviderDefaults picks the provider's default model when a file
// switches provider without naming a model, and the known vector size when
// it switches embedding model without naming dimensions.
func applyProviderDefaults(cfg *domain.Config) {
	def := domain.DefaultConfig()

	if cfg.LLM.Provider != def.LLM.Provider && cfg.LLM.Model == def.LLM.Model {
		if m, ok := domain.DefaultLLMModels()[cfg.LLM.Provider]; ok {
			cfg.LLM.Model = m
		}
	}

	if cfg.Embedding.Provider != def.Embedding.Provider && cfg.Embedding.Model == def.Embedding.Model {
		if m, ok := domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]; ok {
			cfg.Embedding.Model = m
		}
	}
	if cfg.Embedding.Model != def.Embedding.Model && cfg.Embedding.Dimensions == def.Embedding.Dimensions {
		if d, ok := domain.EmbeddingDimensions()[cfg.Embedding.Model]; ok {
			cfg.Embedding.Dimensions = d
		}
	}
}

func (l *Loader) applyEnv(cfg *domain.Config) {
	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    l.getenv(EnvOpenAIKey),
		domain.AIProviderAnthropic: l.getenv(EnvAnthropicKey),
		domain.AIProviderGemini:    l.getenv(EnvGeminiKey),
	}
	if key := keys[cfg.Embedding.Provider]; key != "" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = key
	}
	if key := keys[cfg.LLM.Provider]; key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}

	if v := l.getenv(EnvQdrantKey); v != "" {
		cfg.Index.Qdrant.APIKey = v
	}
	if v := l.getenv(EnvQdrantURL); v != "" {
		cfg.Index.Qdrant.URL = v
	}
	if v := l.getenv(EnvIndexName); v != "" {
		cfg.Index.Name = v
	}
	if v := l.getenv(EnvDataDir); v != "" {
		cfg.Index.DataDir = v
	}
}

func (l *Loader) resolvePaths(cfg *domain.Config) {
	if cfg.Index.DataDir == "" {
		cfg.Index.DataDir = filepath.Join(l.appDir, "data")
	}
	home := filepath.Dir(l.appDir)
	cfg.Index.DataDir = expandHome(cfg.Index.DataDir, home)
	cfg.Documents.Dir = expandHome(cfg.Documents.Dir, home)
}

// expandHome replaces a leading "~" with the home directory.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// fieldPath turns "Config.Chunking.Overlap" into "chunking.overlap".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// Masked returns a copy of cfg with API keys replaced for display.
func Masked(cfg domain.Config) domain.Config {
	cfg.Embedding.APIKey = mask(cfg.Embedding.APIKey)
	cfg.LLM.APIKey = mask(cfg.LLM.APIKey)
	cfg.Index.Qdrant.APIKey = mask(cfg.Index.Qdrant.APIKey)
	return cfg
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
