package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/greenlens/internal/diff"
	"github.com/sprite-ai/greenlens/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Analyze a file and output a report (non-interactive)",
	Long: `Run the analyzer on a Python file and print its annotations as a report.
Useful for CI and pre-commit hooks.

Exit codes:
  0  no line at or above the --fail-on band
  1  a line at or above the --fail-on band, or an error

Examples:
  greenlens check train.py
  greenlens check train.py --format json
  greenlens check train.py --changed main...HEAD --fail-on D
  greenlens check train.py --changed -          # working tree vs HEAD`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown, html, msgpack, yaml")
	checkCmd.Flags().String("changed", "", "only report lines added in this commit range (- for the working tree)")
	checkCmd.Flags().Bool("no-cache", false, "always run the analyzer")
	checkCmd.Flags().String("fail-on", "", "exit 1 when any line is at or above this band (A-E)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	changed, _ := cmd.Flags().GetString("changed")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	failOn, _ := cmd.Flags().GetString("fail-on")

	if err := checkFormat(format); err != nil {
		return err
	}

	var threshold model.Band
	if failOn != "" {
		b, err := model.ParseBand(failOn)
		if err != nil || !b.Known() {
			return fmt.Errorf("--fail-on: want a band A-E, got %q", failOn)
		}
		threshold = b
	}

	out, err := annotatePath(cmd.Context(), args[0], noCache)
	if err != nil {
		return err
	}
	res := out.Results

	if cmd.Flags().Changed("changed") {
		keep, err := diff.ChangedLines(out.Doc.Path, changed)
		if err != nil {
			return fmt.Errorf("--changed: %w", err)
		}
		res = res.Restrict(keep)
		log.WithFields(log.Fields{"path": out.Doc.Path, "changed": len(keep)}).Debug("restricted to changed lines")
	}

	if err := writeReport(cmd.OutOrStdout(), format, out.Doc.Path, res); err != nil {
		return err
	}

	if failOn != "" {
		if worst := res.Worst(); worst.Known() && worst >= threshold {
			return &ExitError{Code: 1}
		}
	}
	return nil
}
