package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
	Long: `Create, drop and inspect the vector index named by index.name in the
config. The index dimension is embedding.dimensions and the metric is cosine.`,
}

var indexCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the configured index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close() //nolint:errcheck

		info, err := app.index.Create(cmd.Context())
		if err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		cmd.Printf("Index %s ready (%d dimensions, %s)\n", info.Name, info.Dimensions, info.Metric)
		return nil
	},
}

var indexDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the configured index and all its entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close() //nolint:errcheck

		if err := app.index.Drop(cmd.Context()); err != nil {
			return fmt.Errorf("drop index: %w", err)
		}
		cmd.Printf("Index %s dropped\n", app.cfg.Index.Name)
		return nil
	},
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indexes in the vector store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close() //nolint:errcheck

		infos, err := app.index.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list indexes: %w", err)
		}
		if len(infos) == 0 {
			cmd.Println("No indexes.")
			return nil
		}
		for _, info := range infos {
			printIndexInfo(cmd, info)
		}
		return nil
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the configured index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := loadApplication(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close() //nolint:errcheck

		info, err := app.index.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("index stats: %w", err)
		}
		printIndexInfo(cmd, info)
		return nil
	},
}

func init() {
	indexCmd.AddCommand(indexCreateCmd, indexDropCmd, indexListCmd, indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func printIndexInfo(cmd *cobra.Command, info domain.IndexInfo) {
	cmd.Printf("%-24s %6d dims  %-6s  %d entries\n", info.Name, info.Dimensions, info.Metric, info.Count)
}
