package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var askSources bool

// stdinIsTerminal reports whether stdin is interactive. Tests replace it.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer one question from the indexed documents",
	Long: `Embeds the question, retrieves the closest chunks from the index and
prints the generated answer. The question may also be piped on stdin:

  echo "What are the symptoms of acne?" | ragchat ask`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "print the documents the answer came from")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question, err := readQuestion(cmd, args)
	if err != nil {
		return err
	}

	app, err := loadApplication(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	answer, err := app.chat.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	// Answers go to stdout so they can be piped; logs stay on stderr.
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)
	if askSources && len(answer.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for _, s := range answer.Sources {
			fmt.Fprintf(out, "  %s\n", s)
		}
	}
	return nil
}

// readQuestion joins the arguments, or reads stdin when none are given.
func readQuestion(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdinIsTerminal() {
		return "", fmt.Errorf("%w: provide a question as arguments or on stdin", domain.ErrInvalidInput)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("%w: read stdin: %w", domain.ErrIO, err)
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return "", fmt.Errorf("%w: no question on stdin", domain.ErrInvalidInput)
	}
	return question, nil
}
