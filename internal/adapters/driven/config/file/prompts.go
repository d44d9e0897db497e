package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults
var defaultFiles embed.FS

// placeholders lists the value each known prompt is expected to carry.
var placeholders = map[string]string{
	driven.PromptAnswerSystem: "{context}",
	driven.PromptAnswerUser:   "{question}",
}

// PromptStore serves the answer prompts from user-editable files.
// The directory is seeded with the embedded defaults on first Load; a file
// that is missing or unreadable falls back to its default.
type PromptStore struct {
	promptDir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]string
}

// NewPromptStore creates a prompt store rooted at promptDir, or at
// ~/.ragchat/prompts when promptDir is empty. No files are touched until Load.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, AppDirName, "prompts")
	}
	return &PromptStore{promptDir: promptDir, cache: make(map[string]string)}, nil
}

// Load returns the named prompt, reading it from disk once per Reload.
func (s *PromptStore) Load(name string) (string, error) {
	want, known := placeholders[name]

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("Prompt directory unavailable, using defaults: %v", s.seedErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prompt, ok := s.cache[name]; ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		if !known {
			return "", fmt.Errorf("%w: load prompt %q: %w", domain.ErrConfiguration, name, err)
		}
		if prompt, err = defaultPrompt(name); err != nil {
			return "", err
		}
	}
	if known && !strings.Contains(prompt, want) {
		logger.Warn("Prompt %s has no %s placeholder", name, want)
	}

	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached prompts so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// seed copies every embedded default that does not exist on disk yet.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	entries, err := defaultFiles.ReadDir("defaults")
	if err != nil {
		s.seedErr = err
		return
	}
	for _, entry := range entries {
		path := filepath.Join(s.promptDir, entry.Name())
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaultFiles.ReadFile("defaults/" + entry.Name())
		if err != nil {
			s.seedErr = err
			return
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", entry.Name(), err)
			return
		}
	}
}

func defaultPrompt(name string) (string, error) {
	data, err := defaultFiles.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("%w: no default prompt %q", domain.ErrConfiguration, name)
	}
	return strings.TrimSpace(string(data)), nil
}
