package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

var configInitForce bool

// newConfigValidator is replaced in tests.
var newConfigValidator = func() driven.AIConfigValidator { return ai.NewConfigValidator() }

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Long: `Prints the configuration after defaults, the config file and environment
variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, QDRANT_URL,
QDRANT_API_KEY, RAGCHAT_INDEX_NAME, RAGCHAT_DATA_DIR) have been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes the default configuration to the config file. When run in a
terminal and the chosen LLM provider needs an API key that is not in the
environment, the key is prompted for (input is hidden).`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the embedding and LLM providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(file.Masked(*cfg))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	cmd.Printf("# %s\n%s", loader.Path(), data)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	loader, err := file.NewLoader(configPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(loader.Path()); err == nil && !configInitForce {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", domain.ErrConfiguration, loader.Path())
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	cfg := domain.DefaultConfig()
	if cfg.LLM.Provider.RequiresAPIKey() && os.Getenv(llmKeyEnv(cfg.LLM.Provider)) == "" && stdinIsTerminal() {
		cmd.Printf("%s API key (leave empty to use %s): ", cfg.LLM.Provider.Description(), llmKeyEnv(cfg.LLM.Provider))
		cfg.LLM.APIKey = readSecret(cmd.InOrStdin())
		cmd.Println()
	}

	if err := loader.Save(&cfg); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", loader.Path())
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	v := newConfigValidator()
	embedErr := v.ValidateEmbedding(&cfg.Embedding)
	printCheck(cmd, "embedding", cfg.Embedding.Provider, cfg.Embedding.Model, embedErr)
	llmErr := v.ValidateLLM(&cfg.LLM)
	printCheck(cmd, "llm", cfg.LLM.Provider, cfg.LLM.Model, llmErr)

	return errors.Join(embedErr, llmErr)
}

func printCheck(cmd *cobra.Command, kind string, provider domain.AIProvider, model string, err error) {
	if err != nil {
		cmd.Printf("%-9s %s (%s): FAILED: %v\n", kind, provider.Description(), model, err)
		return
	}
	cmd.Printf("%-9s %s (%s): ok\n", kind, provider.Description(), model)
}

// llmKeyEnv names the environment variable holding the provider's key.
func llmKeyEnv(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderOpenAI:
		return file.EnvOpenAIKey
	case domain.AIProviderAnthropic:
		return file.EnvAnthropicKey
	case domain.AIProviderGemini:
		return file.EnvGeminiKey
	default:
		return ""
	}
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
