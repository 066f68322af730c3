package cmd

import (
	"context"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/shiroyk/crumb/lib/config"
	"github.com/shiroyk/crumb/lib/logger"
	"github.com/spf13/cobra"
)

var (
	configArg   string
	envFileArg  string
	logLevelArg string
)

var rootCmd = &cobra.Command{
	Use:           "crumb",
	Short:         "crumb is a persistent cookie jar for http clients.",
	SilenceUsage:  true,
	SilenceErrors: false,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configArg, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFileArg, "env-file", "", "load CRUMB_ environment variables from the dotenv file")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "", "log level, overrides the config")
}

func initConfig() {
	if envFileArg != "" {
		// variables already set in the environment win
		if err := godotenv.Load(envFileArg); err != nil {
			logger.Errorf("error loading env file %s", err)
		}
	}
	cfg, err := config.ReadConfig(configArg)
	if err != nil {
		logger.Errorf("error reading config file %s", err)
		cfg = config.DefaultConfig()
	}
	if logLevelArg != "" {
		cfg.Log.Level = logLevelArg
	}
	slog.SetDefault(logger.New(cfg.Log.Level))
	rootCmd.SetContext(config.NewContext(context.Background(), *cfg))
}

// currentConfig returns the Config read by initConfig.
func currentConfig(cmd *cobra.Command) config.Config {
	return config.FromContext(cmd.Root().Context())
}
