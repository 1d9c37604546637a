package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/greenlens/internal/analysis"
)

var parseCmd = &cobra.Command{
	Use:   "parse [output-file|-]",
	Short: "Annotate saved analyzer output",
	Long: `Run the engine on analyzer output captured earlier, without running the
analyzer. Reads standard input when no file (or -) is given.

Examples:
  python main.py train.py > out.txt
  greenlens parse out.txt --lines 120
  python main.py train.py | greenlens parse --lines 120 --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().IntP("lines", "n", 0, "line count of the analyzed document")
	parseCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown, html, msgpack, yaml")
	parseCmd.MarkFlagRequired("lines")
}

func runParse(cmd *cobra.Command, args []string) error {
	lines, _ := cmd.Flags().GetInt("lines")
	format, _ := cmd.Flags().GetString("format")

	if lines < 0 {
		return fmt.Errorf("--lines must not be negative")
	}
	if err := checkFormat(format); err != nil {
		return err
	}

	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading analyzer output: %w", err)
	}

	policy, err := analysis.PolicyByName(cfg.Policy)
	if err != nil {
		return err
	}
	res := analysis.Run(string(data), lines, policy)
	return writeReport(cmd.OutOrStdout(), format, "", res)
}
