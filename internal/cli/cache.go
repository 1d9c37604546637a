package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/greenlens/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached analyzer output",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached analyzer output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		if err := c.DropAll(); err != nil {
			return fmt.Errorf("cleaning cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed cached analyzer output in %s\n", c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
}
