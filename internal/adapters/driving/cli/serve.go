package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/web"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var (
	serveAddr   string
	serveIngest bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat",
	Long: `Serves a chat page and the question endpoint over HTTP.

Routes:
  GET  /          chat page
  POST /get       form field "msg", answers in plain text
  POST /api/ask   JSON {"question": "..."}, answers {"answer", "sources"}
  GET  /healthz   liveness

The index is opened on the first question, so the server starts even when
the vector store is not reachable yet. Send SIGHUP to re-read edited prompt
files without restarting.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default server.addr from the config)")
	serveCmd.Flags().BoolVar(&serveIngest, "ingest", false, "index documents.dir before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := loadApplication(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	if serveIngest {
		report, err := app.ingest.Ingest(cmd.Context(), app.cfg.Documents.Dir)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		printReport(cmd, app.cfg.Documents.Dir, report)
	}

	server, err := web.NewServer(app.chat, web.Options{
		Title:          "Medical Chatbot",
		IndexName:      app.cfg.Index.Name,
		RequestTimeout: app.cfg.Server.RequestTimeout.Std(),
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = app.cfg.Server.Addr
	}
	if app.prompts != nil {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go reloadPrompts(cmd.Context(), hup, app.prompts)
	}

	cmd.Printf("Chat server listening on %s\n", addr)
	return server.ListenAndServe(cmd.Context(), addr)
}

// reloadPrompts drops cached prompt templates each time sig fires.
func reloadPrompts(ctx context.Context, sig <-chan os.Signal, prompts driven.PromptStore) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			prompts.Reload()
			logger.Info("Prompt templates reloaded")
		}
	}
}
