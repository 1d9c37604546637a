package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/greenlens/internal/analysis"
	"github.com/sprite-ai/greenlens/internal/annotate"
	"github.com/sprite-ai/greenlens/internal/cache"
	"github.com/sprite-ai/greenlens/internal/config"
	"github.com/sprite-ai/greenlens/internal/diff"
	"github.com/sprite-ai/greenlens/internal/runner"
)

// cfg is the effective configuration, loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "greenlens",
	Short: "Energy-smell diagnostics for Python sources",
	Long: `greenlens runs an external energy-smell analyzer on a Python file and
turns its diagnostics into per-line annotations graded A (best) to E (worst).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: .greenlens.toml in the repository)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("policy", "", "line band policy: first, worst")
	rootCmd.PersistentFlags().String("python", "", "python interpreter used to run the analyzer")
	rootCmd.PersistentFlags().String("script", "", "path to the analyzer's main.py")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

// ExitError asks main to exit with Code without printing anything further.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command. Errors other than *ExitError are printed
// to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exit *ExitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return err
}

// ExitCode returns the process exit code for an error returned by Execute.
func ExitCode(err error) int {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

func stringOverride(cmd *cobra.Command, name string) *string {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	v := f.Value.String()
	return &v
}

func loadConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	repoRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	if root, err := diff.RepoRoot(repoRoot); err == nil {
		repoRoot = root
	}

	loaded, err := config.Load(config.LoadOptions{
		RepoRoot:   repoRoot,
		ConfigPath: configPath,
		Overrides: &config.Overrides{
			Python:   stringOverride(cmd, "python"),
			Script:   stringOverride(cmd, "script"),
			Policy:   stringOverride(cmd, "policy"),
			LogLevel: stringOverride(cmd, "log-level"),
		},
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := log.ParseLevel(loaded.LogLevel)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.SetOutput(os.Stderr)
	log.SetLevel(level)

	cfg = loaded
	return nil
}

// newAnnotator builds the analysis pipeline from the loaded configuration.
func newAnnotator(noCache bool) (*annotate.Annotator, error) {
	policy, err := analysis.PolicyByName(cfg.Policy)
	if err != nil {
		return nil, err
	}

	var dc *cache.DiskCache
	if cfg.CacheEnabled && !noCache {
		dc, err = cache.Open(cfg.CacheDir)
		if err != nil {
			// Caching is an optimization; run without it.
			log.WithError(err).Warn("cache unavailable")
			dc = nil
		}
	}

	r := runner.New(cfg.Python, cfg.Script, cfg.Timeout)
	return annotate.New(r, dc, policy), nil
}

func annotatePath(ctx context.Context, path string, noCache bool) (*annotate.Outcome, error) {
	a, err := newAnnotator(noCache)
	if err != nil {
		return nil, err
	}
	return a.Annotate(ctx, path)
}
