package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index the PDF documents in a directory",
	Long: `Loads every matching document in dir (default: documents.dir from the
config), splits it into overlapping chunks, embeds the chunks and upserts
them into the vector index. Re-running replaces the entries of each file.

With --watch the command keeps running and re-indexes files as they are
created, modified or deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep indexing as files change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := loadApplication(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	dir := app.cfg.Documents.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := app.ingest.Ingest(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printReport(cmd, dir, report)

	if !ingestWatch {
		return nil
	}

	w, err := watch.New(app.ingest, dir, app.matcher, watch.Options{
		OnResult: func(r watch.Result) {
			switch {
			case r.Err != nil:
				cmd.PrintErrf("%s %s failed: %v\n", r.Action, r.Path, r.Err)
			case r.Action == watch.ActionRemove:
				cmd.Printf("Removed %s\n", r.Path)
			default:
				cmd.Printf("Re-indexed %s (%d chunks)\n", r.Path, r.Report.Entries)
			}
		},
	})
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (ctrl+c to stop)\n", dir)
	return w.Run(cmd.Context())
}

func printReport(cmd *cobra.Command, dir string, report domain.IngestReport) {
	if report.Documents == 0 {
		cmd.Printf("No documents found in %s\n", dir)
	} else {
		cmd.Printf("Indexed %d pages from %s: %d chunks in %s\n",
			report.Documents, dir, report.Entries, report.Duration.Round(time.Millisecond))
	}
	if report.Removed > 0 {
		cmd.Printf("Removed entries of %d deleted files\n", report.Removed)
	}
}
