// Package cli provides the ragchat command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your PDF documents",
	Long: `ragchat answers questions from a collection of PDF documents.

Documents are split into chunks, embedded and stored in a vector index.
Each question retrieves the closest chunks and a language model answers
from them, saying so when the documents do not contain the answer.

Get started:
  ragchat config init        # write ~/.ragchat/config.toml
  ragchat ingest ./data      # index the PDFs in ./data
  ragchat ask "What is acne?"
  ragchat serve              # web chat on http://localhost:8080`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Ignoring .env: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ~/.ragchat/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion sets the version reported by the version command and MCP server.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the effective configuration.
func loadConfig() (*domain.Config, *file.Loader, error) {
	loader, err := file.NewLoader(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Loaded config from %s", loader.Path())
	return cfg, loader, nil
}

// loadApplication loads config and wires the services a command needs.
func loadApplication(cmd *cobra.Command, withChat bool) (*application, error) {
	cfg, loader, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app, err := newApplication(cmd.Context(), cfg, loader, withChat)
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	return app, nil
}
