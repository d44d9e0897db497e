package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"ingest", "ask", "serve", "chat", "mcp", "index", "config", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cfg := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)

	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "false", v.DefValue)
}

func TestVersionCmd(t *testing.T) {
	setupTestApp(t)
	original := version
	SetVersion("1.2.3")
	defer SetVersion(original)

	out, err := run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "ragchat version 1.2.3")
}

func TestIngestCmd(t *testing.T) {
	t.Run("uses configured directory", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.ingest.report = domain.IngestReport{Documents: 3, Chunks: 10, Entries: 10, Duration: time.Second}

		out, err := run(t, "ingest")

		require.NoError(t, err)
		assert.Equal(t, "data", ta.ingest.dir)
		assert.Equal(t, []bool{false}, ta.withChat, "ingest does not need the LLM")
		requireContains(t, out, "Indexed 3 pages from data", "10 chunks")
	})

	t.Run("directory argument", func(t *testing.T) {
		ta := setupTestApp(t)

		out, err := run(t, "ingest", "/docs")

		require.NoError(t, err)
		assert.Equal(t, "/docs", ta.ingest.dir)
		assert.Contains(t, out, "No documents found in /docs")
	})

	t.Run("reports removed files", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.ingest.report = domain.IngestReport{Removed: 2}

		out, err := run(t, "ingest")

		require.NoError(t, err)
		requireContains(t, out, "No documents found in data", "Removed entries of 2 deleted files")
	})

	t.Run("failure", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.ingest.err = domain.ErrModelUnavailable

		_, err := run(t, "ingest")

		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("too many arguments", func(t *testing.T) {
		setupTestApp(t)

		_, err := run(t, "ingest", "a", "b")

		assert.Error(t, err)
	})
}

func TestIngestCmd_Watch(t *testing.T) {
	setupTestApp(t)
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(t, ctx, "", "ingest", "--watch", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Watching "+dir)
}

func TestExecute_FreshContextPerRun(t *testing.T) {
	ta := setupTestApp(t)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = execute(t, cancelled, "", "ingest")

	_, err := run(t, "ingest")

	require.NoError(t, err)
	assert.NoError(t, ta.ingest.ctxErr, "the second run sees its own context")
}

func TestAskCmd(t *testing.T) {
	t.Run("joins arguments", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.chat.answer = domain.Answer{Text: "Paris.", Sources: []string{"facts.pdf"}}

		out, err := run(t, "ask", "capital", "of", "France?")

		require.NoError(t, err)
		assert.Equal(t, "capital of France?", ta.chat.question)
		assert.Equal(t, []bool{true}, ta.withChat)
		assert.Contains(t, out, "Paris.")
		assert.NotContains(t, out, "Sources:")
	})

	t.Run("prints sources", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.chat.answer = domain.Answer{Text: "Paris.", Sources: []string{"facts.pdf", "atlas.pdf"}}

		out, err := run(t, "ask", "--sources", "capital?")

		require.NoError(t, err)
		requireContains(t, out, "Sources:", "  facts.pdf", "  atlas.pdf")
	})

	t.Run("reads piped stdin", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.chat.answer = domain.Answer{Text: "ok"}

		_, err := execute(t, context.Background(), "  what is acne?\n", "ask")

		require.NoError(t, err)
		assert.Equal(t, "what is acne?", ta.chat.question)
	})

	t.Run("blank stdin", func(t *testing.T) {
		ta := setupTestApp(t)

		_, err := execute(t, context.Background(), " \n\t ", "ask")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "no question on stdin")
		assert.Empty(t, ta.chat.question, "nothing is sent to the pipeline")
	})

	t.Run("terminal without question", func(t *testing.T) {
		setupTestApp(t)
		stdinIsTerminal = func() bool { return true }

		_, err := run(t, "ask")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("pipeline error", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.chat.err = domain.ErrIndexUnavailable

		_, err := run(t, "ask", "q")

		assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
	})
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	ta := setupTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(t, ctx, "", "serve", "--addr", "127.0.0.1:0", "--ingest")

	require.NoError(t, err)
	assert.Contains(t, out, "Chat server listening on 127.0.0.1:0")
	assert.Equal(t, "data", ta.ingest.dir)
}

type countingPromptStore struct {
	reloads chan struct{}
}

func (c *countingPromptStore) Load(_ string) (string, error) { return "", nil }

func (c *countingPromptStore) Reload() { c.reloads <- struct{}{} }

func TestReloadPrompts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	store := &countingPromptStore{reloads: make(chan struct{}, 1)}
	done := make(chan struct{})

	go func() {
		reloadPrompts(ctx, sig, store)
		close(done)
	}()

	sig <- syscall.SIGHUP
	select {
	case <-store.reloads:
	case <-time.After(2 * time.Second):
		t.Fatal("prompts were not reloaded")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reloadPrompts did not stop on cancel")
	}
}

func TestServeCmd_Flags(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "a", addr.Shorthand)
	assert.NotNil(t, serveCmd.Flags().Lookup("ingest"))
}

func TestMCPCmd_Flags(t *testing.T) {
	flag := mcpCmd.Flags().Lookup("http")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestMCPCmd_HTTPStopsOnCancel(t *testing.T) {
	setupTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(t, ctx, "", "mcp", "--http", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "MCP server listening")
}

func TestIndexCmds(t *testing.T) {
	info := domain.IndexInfo{Name: "medical-chatbot", Dimensions: 384, Metric: domain.MetricCosine, Count: 42}

	t.Run("create", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.index.info = info

		out, err := run(t, "index", "create")

		require.NoError(t, err)
		assert.Contains(t, out, "Index medical-chatbot ready (384 dimensions, cosine)")
	})

	t.Run("drop", func(t *testing.T) {
		ta := setupTestApp(t)

		out, err := run(t, "index", "drop")

		require.NoError(t, err)
		assert.True(t, ta.index.dropped)
		assert.Contains(t, out, "Index medical-chatbot dropped")
	})

	t.Run("drop missing", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.index.err = domain.ErrIndexNotFound

		_, err := run(t, "index", "drop")

		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("list", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.index.infos = []domain.IndexInfo{info, {Name: "other", Dimensions: 768, Metric: "cosine"}}

		out, err := run(t, "index", "list")

		require.NoError(t, err)
		requireContains(t, out, "medical-chatbot", "42 entries", "other", "768 dims")
	})

	t.Run("list empty", func(t *testing.T) {
		setupTestApp(t)

		out, err := run(t, "index", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No indexes.")
	})

	t.Run("stats", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.index.info = info

		out, err := run(t, "index", "stats")

		require.NoError(t, err)
		assert.Contains(t, out, "42 entries")
	})
}

func TestConfigShow(t *testing.T) {
	setupTestApp(t)
	t.Setenv("OPENAI_API_KEY", "sk-1234567890abcdef")

	out, err := run(t, "config", "show")

	require.NoError(t, err)
	requireContains(t, out, "[index]", "name = 'medical-chatbot'", "size = 500", "overlap = 20", "k = 3", "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
}

func TestConfigShow_InvalidFile(t *testing.T) {
	setupTestApp(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chunking]\nsize = 10\noverlap = 10\n"), 0600))

	_, err := run(t, "--config", path, "config", "show")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestConfigInit(t *testing.T) {
	setupTestApp(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := run(t, "--config", path, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = run(t, "--config", path, "config", "init")
	assert.ErrorIs(t, err, domain.ErrConfiguration, "refuses to overwrite")

	_, err = run(t, "--config", path, "config", "init", "--force")
	assert.NoError(t, err)

	out, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
}

func TestConfigCheck(t *testing.T) {
	t.Run("all reachable", func(t *testing.T) {
		setupTestApp(t)

		out, err := run(t, "config", "check")

		require.NoError(t, err)
		requireContains(t, out, "embedding", "Ollama (local) (all-minilm): ok", "llm", "OpenAI (cloud) (gpt-4o): ok")
	})

	t.Run("unreachable llm", func(t *testing.T) {
		setupTestApp(t)
		newConfigValidator = func() driven.AIConfigValidator {
			return &mockValidator{llmErr: fmt.Errorf("%w: LLM service unreachable", domain.ErrModelUnavailable)}
		}

		out, err := run(t, "config", "check")

		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
		requireContains(t, out, "Ollama (local) (all-minilm): ok", "OpenAI (cloud) (gpt-4o): FAILED")
	})
}

func TestLLMKeyEnv(t *testing.T) {
	assert.Equal(t, "OPENAI_API_KEY", llmKeyEnv(domain.AIProviderOpenAI))
	assert.Equal(t, "ANTHROPIC_API_KEY", llmKeyEnv(domain.AIProviderAnthropic))
	assert.Equal(t, "GEMINI_API_KEY", llmKeyEnv(domain.AIProviderGemini))
	assert.Empty(t, llmKeyEnv(domain.AIProviderOllama))
}
