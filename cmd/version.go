package cmd

import (
	"fmt"

	"github.com/shiroyk/crumb/lib/consts"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%v\n crumb %v/%v\n", consts.Banner, consts.Version, consts.CommitSHA)
		},
	})
}
