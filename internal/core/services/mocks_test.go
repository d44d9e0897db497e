package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLoader implements driven.DocumentLoader for testing.
type mockLoader struct {
	docs    map[string][]domain.RawDocument
	loadErr error
}

func (m *mockLoader) Load(_ context.Context, dir string) ([]domain.RawDocument, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	var out []domain.RawDocument
	for path, docs := range m.docs {
		if strings.HasPrefix(path, dir+"/") {
			out = append(out, docs...)
		}
	}
	return out, nil
}

func (m *mockLoader) LoadFile(_ context.Context, path string) ([]domain.RawDocument, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.docs[path], nil
}

func (m *mockLoader) Matches(path string) bool {
	return strings.HasSuffix(path, ".pdf")
}

// mockEmbedding implements driven.EmbeddingService with a letter-frequency
// vector, so texts sharing words land close together.
type mockEmbedding struct {
	mu       sync.Mutex
	calls    int
	batches  []int
	embedErr error
}

const mockDims = 26

func (m *mockEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batches = append(m.batches, len(texts))
	m.mu.Unlock()

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, mockDims)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				v[r-'a']++
			}
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int              { return mockDims }
func (m *mockEmbedding) ModelName() string            { return "mock-embed" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	reply    string
	chatErr  error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts implements driven.PromptStore with in-memory templates.
type mockPrompts struct {
	prompts map[string]string
}

func newMockPrompts() *mockPrompts {
	return &mockPrompts{prompts: map[string]string{
		driven.PromptAnswerSystem: "Use the context. Say you don't know otherwise.\n\n{context}",
		driven.PromptAnswerUser:   "Answer the following question: {question}",
	}}
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrConfiguration
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// mockGenerator implements driven.AnswerGenerator for testing.
type mockGenerator struct {
	answer   domain.Answer
	err      error
	calls    int
	question string
	context  []string
}

func (m *mockGenerator) Generate(_ context.Context, question string, context []string) (domain.Answer, error) {
	m.calls++
	m.question = question
	m.context = context
	if m.err != nil {
		return domain.Answer{}, m.err
	}
	return m.answer, nil
}

// mockVectorStore implements driven.VectorStore and always fails to open.
type mockVectorStore struct {
	openErr error
	opens   int
}

func (m *mockVectorStore) Open(_ context.Context, _ driven.IndexSpec) (driven.VectorIndex, error) {
	m.opens++
	return nil, m.openErr
}
func (m *mockVectorStore) Create(_ context.Context, _ driven.IndexSpec) error { return m.openErr }
func (m *mockVectorStore) Drop(_ context.Context, _ string) error             { return m.openErr }
func (m *mockVectorStore) List(_ context.Context) ([]domain.IndexInfo, error) { return nil, m.openErr }
func (m *mockVectorStore) Close() error                                       { return nil }

// mockVectorIndex implements driven.VectorIndex with canned results.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
	upsertErr error
	lastK     int
}

func (m *mockVectorIndex) Upsert(_ context.Context, _ []domain.IndexedEntry) error { return m.upsertErr }
func (m *mockVectorIndex) DeleteBySource(_ context.Context, _ string) error        { return nil }
func (m *mockVectorIndex) Count(_ context.Context) (int, error)                    { return len(m.hits), nil }
func (m *mockVectorIndex) Sources(_ context.Context) ([]string, error)             { return nil, nil }
func (m *mockVectorIndex) Name() string                                            { return "mock" }
func (m *mockVectorIndex) Dimensions() int                                         { return mockDims }

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

// staticStore opens the same index for every spec.
type staticStore struct {
	mockVectorStore
	idx driven.VectorIndex
}

func (s *staticStore) Open(_ context.Context, _ driven.IndexSpec) (driven.VectorIndex, error) {
	s.opens++
	return s.idx, nil
}
