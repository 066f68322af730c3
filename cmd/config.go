package cmd

import (
	"fmt"

	"github.com/shiroyk/crumb/lib/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configGenArg string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "print the crumb configuration, or generate the default one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configGenArg != "" {
			return config.WriteConfig(configGenArg)
		}
		cfg := currentConfig(cmd)
		bytes, err := yaml.Marshal(&cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), string(bytes))
		return err
	},
}

func init() {
	configCmd.Flags().StringVarP(&configGenArg, "gen", "g", "", "generate default configuration file")
	rootCmd.AddCommand(configCmd)
}
