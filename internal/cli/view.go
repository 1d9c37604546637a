package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sprite-ai/greenlens/internal/analysis"
	"github.com/sprite-ai/greenlens/internal/session"
	"github.com/sprite-ai/greenlens/internal/source"
	"github.com/sprite-ai/greenlens/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Open the interactive source viewer",
	Long: `Analyze a file and open it in a terminal viewer with each diagnosed line
marked in its NutriScore color. Press r to re-run the analyzer and ? for help.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().Bool("no-cache", false, "always run the analyzer")
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runView(cmd *cobra.Command, args []string) error {
	noCache, _ := cmd.Flags().GetBool("no-cache")

	if !isTerminal(os.Stdout) {
		return errors.New("view needs an interactive terminal; use check for piped output")
	}

	a, err := newAnnotator(noCache)
	if err != nil {
		return err
	}
	doc, err := source.Load(args[0])
	if err != nil {
		return err
	}

	store := session.New()
	analyze := func(ctx context.Context) (*analysis.Results, error) {
		run, err := store.Analyze(ctx, doc.Path, func(ctx context.Context) (session.Run, error) {
			out, err := a.Annotate(ctx, doc.Path)
			if err != nil {
				return session.Run{}, err
			}
			return session.Run{Results: out.Results, Cached: out.Cached}, nil
		})
		return run.Results, err
	}

	res, err := analyze(cmd.Context())
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	log.SetOutput(io.Discard)
	defer log.SetOutput(cmd.ErrOrStderr())

	if err := tui.Run(doc, res, analyze); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
