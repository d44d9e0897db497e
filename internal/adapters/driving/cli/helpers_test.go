package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	answer   domain.Answer
	err      error
	question string
}

func (m *mockChatService) Ask(_ context.Context, question string) (domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

// mockIngestService implements driving.IngestService for testing.
type mockIngestService struct {
	report domain.IngestReport
	err    error
	dir    string
	ctxErr error
}

func (m *mockIngestService) Ingest(ctx context.Context, dir string) (domain.IngestReport, error) {
	m.dir = dir
	m.ctxErr = ctx.Err()
	return m.report, m.err
}

func (m *mockIngestService) IngestFile(_ context.Context, _ string) (domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) RemoveFile(_ context.Context, _ string) error {
	return m.err
}

// mockIndexService implements driving.IndexService for testing.
type mockIndexService struct {
	info    domain.IndexInfo
	infos   []domain.IndexInfo
	err     error
	dropped bool
}

func (m *mockIndexService) Create(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockIndexService) Drop(_ context.Context) error {
	m.dropped = m.err == nil
	return m.err
}

func (m *mockIndexService) List(_ context.Context) ([]domain.IndexInfo, error) {
	return m.infos, m.err
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

type suffixMatcher string

func (s suffixMatcher) Matches(path string) bool {
	return strings.HasSuffix(path, string(s))
}

// testApp holds the mocks injected into commands.
type testApp struct {
	chat     *mockChatService
	ingest   *mockIngestService
	index    *mockIndexService
	withChat []bool
}

// setupTestApp isolates HOME and replaces service wiring with mocks.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{file.EnvOpenAIKey, file.EnvAnthropicKey, file.EnvGeminiKey,
		file.EnvQdrantURL, file.EnvQdrantKey, file.EnvIndexName, file.EnvDataDir} {
		t.Setenv(env, "")
	}

	ta := &testApp{
		chat:   &mockChatService{},
		ingest: &mockIngestService{},
		index:  &mockIndexService{},
	}

	original := newApplication
	newApplication = func(_ context.Context, cfg *domain.Config, loader *file.Loader, withChat bool) (*application, error) {
		ta.withChat = append(ta.withChat, withChat)
		return &application{
			cfg:     cfg,
			loader:  loader,
			chat:    ta.chat,
			ingest:  ta.ingest,
			index:   ta.index,
			matcher: suffixMatcher(".pdf"),
		}, nil
	}
	originalTerminal := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	originalValidator := newConfigValidator
	newConfigValidator = func() driven.AIConfigValidator { return &mockValidator{} }

	t.Cleanup(func() {
		newApplication = original
		stdinIsTerminal = originalTerminal
		newConfigValidator = originalValidator
		configPath = ""
		verbose = false
		askSources = false
		ingestWatch = false
		serveAddr = ""
		serveIngest = false
		configInitForce = false
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return ta
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	setContexts(rootCmd, ctx)

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// setContexts gives every command the context of this run. Cobra only
// fills in a subcommand context when it is nil, so one left over from an
// earlier run would otherwise win.
func setContexts(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		setContexts(c, ctx)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, context.Background(), "", args...)
}

func requireContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		require.Contains(t, out, p)
	}
}
